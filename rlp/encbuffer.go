// Copyright 2022 The go-ethereum Authors
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

// EncoderBuffer is a buffer for incremental encoding.
//
// The zero value is NOT ready for use. To get a usable buffer, create it
// using NewEncoderBuffer or call Reset.
type EncoderBuffer struct {
	buf *encBuffer
}

// NewEncoderBuffer creates an encoder buffer backed by the internal pool.
func NewEncoderBuffer() EncoderBuffer {
	var w EncoderBuffer
	w.Reset()
	return w
}

// Reset truncates the buffer, re-acquiring one from the pool if necessary.
func (w *EncoderBuffer) Reset() {
	if w.buf != nil {
		w.buf.reset()
		return
	}
	w.buf = getEncBuffer()
}

// Flush returns the buffer to the pool. The buffer is not usable afterwards
// until the next Reset.
func (w *EncoderBuffer) Flush() {
	if w.buf != nil {
		encBufferPool.Put(w.buf)
	}
	w.buf = nil
}

// ToBytes returns the encoded bytes.
func (w *EncoderBuffer) ToBytes() []byte {
	return w.buf.makeBytes()
}

// AppendToBytes appends the encoded bytes to dst.
func (w *EncoderBuffer) AppendToBytes(dst []byte) []byte {
	size := w.buf.size()
	out := append(dst, make([]byte, size)...)
	w.buf.copyTo(out[len(dst):])
	return out
}

// Write appends b directly to the encoder output.
func (w EncoderBuffer) Write(b []byte) (int, error) {
	w.buf.str = append(w.buf.str, b...)
	return len(b), nil
}

// WriteBytes encodes b as an RLP string.
func (w EncoderBuffer) WriteBytes(b []byte) {
	w.buf.writeBytes(b)
}

// WriteEmptyString encodes the empty string marker.
func (w EncoderBuffer) WriteEmptyString() {
	w.buf.str = append(w.buf.str, EmptyString)
}

// List starts a list. It returns an internal index. Call ListEnd with this
// index after encoding the content to finish the list.
func (w EncoderBuffer) List() int {
	return w.buf.list()
}

// ListEnd finishes the given list.
func (w EncoderBuffer) ListEnd(index int) {
	w.buf.listEnd(index)
}
