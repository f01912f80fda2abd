// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package rlp

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func encodeString(b []byte) []byte {
	w := NewEncoderBuffer()
	defer w.Flush()
	w.WriteBytes(b)
	return w.ToBytes()
}

func TestWriteBytes(t *testing.T) {
	tests := []struct {
		in  []byte
		out []byte
	}{
		{[]byte{}, []byte{0x80}},
		{nil, []byte{0x80}},
		{[]byte{0x00}, []byte{0x00}},
		{[]byte{0x7f}, []byte{0x7f}},
		{[]byte{0x80}, []byte{0x81, 0x80}},
		{[]byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
		{
			bytes.Repeat([]byte{0x61}, 55),
			append([]byte{0xb7}, bytes.Repeat([]byte{0x61}, 55)...),
		},
		{
			bytes.Repeat([]byte{0x61}, 56),
			append([]byte{0xb8, 0x38}, bytes.Repeat([]byte{0x61}, 56)...),
		},
	}
	for _, test := range tests {
		if got := encodeString(test.in); !bytes.Equal(got, test.out) {
			t.Errorf("WriteBytes(%x) -> %x, want %x", test.in, got, test.out)
		}
		if got := AppendBytes(nil, test.in); !bytes.Equal(got, test.out) {
			t.Errorf("AppendBytes(%x) -> %x, want %x", test.in, got, test.out)
		}
	}
}

func TestList(t *testing.T) {
	w := NewEncoderBuffer()
	defer w.Flush()

	// ["cat", "dog"]
	l := w.List()
	w.WriteBytes([]byte("cat"))
	w.WriteBytes([]byte("dog"))
	w.ListEnd(l)

	want := []byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if got := w.ToBytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x want %x", got, want)
	}
}

func TestEmptyList(t *testing.T) {
	w := NewEncoderBuffer()
	defer w.Flush()
	l := w.List()
	w.ListEnd(l)
	if got := w.ToBytes(); !bytes.Equal(got, []byte{EmptyList}) {
		t.Errorf("got %x want c0", got)
	}
}

func TestNestedList(t *testing.T) {
	w := NewEncoderBuffer()
	defer w.Flush()

	// [ [], [[]], [ [], [[]] ] ]
	outer := w.List()
	l1 := w.List()
	w.ListEnd(l1)
	l2 := w.List()
	l21 := w.List()
	w.ListEnd(l21)
	w.ListEnd(l2)
	l3 := w.List()
	l31 := w.List()
	w.ListEnd(l31)
	l32 := w.List()
	l321 := w.List()
	w.ListEnd(l321)
	w.ListEnd(l32)
	w.ListEnd(l3)
	w.ListEnd(outer)

	want := []byte{0xc7, 0xc0, 0xc1, 0xc0, 0xc3, 0xc0, 0xc1, 0xc0}
	if got := w.ToBytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x want %x", got, want)
	}
}

func TestLongList(t *testing.T) {
	w := NewEncoderBuffer()
	defer w.Flush()

	l := w.List()
	for i := 0; i < 4; i++ {
		w.WriteBytes(bytes.Repeat([]byte{0x61}, 20))
	}
	w.ListEnd(l)

	// 4 x 21 bytes of content needs a two byte list header.
	want := append([]byte{0xf8, 0x54}, bytes.Repeat(append([]byte{0x94}, bytes.Repeat([]byte{0x61}, 20)...), 4)...)
	if got := w.ToBytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x want %x", got, want)
	}
}

func TestEncoderBufferReuse(t *testing.T) {
	w := NewEncoderBuffer()
	w.WriteBytes([]byte("dog"))
	first := w.ToBytes()
	w.Reset()
	w.WriteBytes([]byte("cat"))
	second := w.ToBytes()
	w.Flush()

	if !bytes.Equal(first, []byte{0x83, 'd', 'o', 'g'}) {
		t.Errorf("first encoding: got %x", first)
	}
	if !bytes.Equal(second, []byte{0x83, 'c', 'a', 't'}) {
		t.Errorf("second encoding: got %x", second)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		input     string
		kind      Kind
		val, rest string
		err       error
	}{
		{input: "00", kind: Byte, val: "00"},
		{input: "01", kind: Byte, val: "01"},
		{input: "7f", kind: Byte, val: "7f"},
		{input: "80", kind: String, val: ""},
		{input: "83646f67", kind: String, val: "646f67"},
		{input: "83646f676161", kind: String, val: "646f67", rest: "6161"},
		{input: "c0", kind: List, val: ""},
		{input: "c883636174 83646f67", kind: List, val: "8363617483646f67"},
		{input: "", err: io.ErrUnexpectedEOF},
		// non-canonical single byte as short string
		{input: "8100", err: ErrCanonSize},
		{input: "817f", err: ErrCanonSize},
		{input: "8180", kind: String, val: "80"},
		// declared size exceeds input
		{input: "85646f67", err: ErrValueTooLarge},
		{input: "c5646f67", err: ErrValueTooLarge},
		// long string with non-minimal size
		{input: "b80161", err: ErrCanonSize},
		{input: "b90000", err: ErrCanonSize},
	}
	for _, test := range tests {
		input := unhex(test.input)
		kind, val, rest, err := Split(input)
		if err != test.err {
			t.Errorf("Split(%q): err %v, want %v", test.input, err, test.err)
			continue
		}
		if test.err != nil {
			continue
		}
		if kind != test.kind {
			t.Errorf("Split(%q): kind %v, want %v", test.input, kind, test.kind)
		}
		if !bytes.Equal(val, unhex(test.val)) {
			t.Errorf("Split(%q): val %x, want %s", test.input, val, test.val)
		}
		if !bytes.Equal(rest, unhex(test.rest)) {
			t.Errorf("Split(%q): rest %x, want %s", test.input, rest, test.rest)
		}
	}
}

func TestSplitTyped(t *testing.T) {
	if _, _, err := SplitString(unhex("c0")); err != ErrExpectedString {
		t.Errorf("SplitString(c0): err %v, want ErrExpectedString", err)
	}
	if _, _, err := SplitList(unhex("83646f67")); err != ErrExpectedList {
		t.Errorf("SplitList(string): err %v, want ErrExpectedList", err)
	}
	content, rest, err := SplitList(unhex("c883636174 83646f67"))
	if err != nil {
		t.Fatalf("SplitList: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("SplitList: rest %x", rest)
	}
	if n, _ := CountValues(content); n != 2 {
		t.Errorf("CountValues: %d, want 2", n)
	}
}

func TestCountValuesMalformed(t *testing.T) {
	if _, err := CountValues(unhex("8100")); err != ErrCanonSize {
		t.Errorf("err %v, want ErrCanonSize", err)
	}
}

func unhex(str string) []byte {
	str = strings.Replace(str, " ", "", -1)
	if len(str) == 0 {
		return nil
	}
	b := make([]byte, len(str)/2)
	for i := 0; i < len(b); i++ {
		b[i] = fromHexChar(str[2*i])<<4 | fromHexChar(str[2*i+1])
	}
	return b
}

func fromHexChar(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		panic("invalid hex char")
	}
}
