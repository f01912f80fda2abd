// Copyright 2016 The go-ethereum Authors
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

package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNode(t *testing.T) {
	// A leaf carrying key [16] (terminator only) and value "hi".
	leaf := []byte{0xc4, 0x20, 0x82, 'h', 'i'}
	n, err := decodeNode(nil, leaf)
	require.NoError(t, err)
	short, ok := n.(*shortNode)
	require.True(t, ok, "expected shortNode, got %T", n)
	assert.Equal(t, []byte{16}, short.Key)
	assert.Equal(t, valueNode("hi"), short.Val)
}

func TestDecodeNodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"empty input", nil},
		{"not a list", []byte{0x82, 'h', 'i'}},
		{"wrong element count", []byte{0xc3, 0x80, 0x80, 0x80}},
		{"empty hex-prefix key", []byte{0xc4, 0x80, 0x82, 'h', 'i'}},
		{"empty leaf value", []byte{0xc2, 0x20, 0x80}},
		{"truncated list payload", []byte{0xc4, 0x20, 0x82, 'h'}},
		{
			// 17 elements, but the first child ref is a 5-byte string,
			// which is neither empty nor a hash.
			"bad child reference",
			append([]byte{0xd6, 0x85, 1, 2, 3, 4, 5},
				[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80,
					0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}...),
		},
	}
	for _, test := range tests {
		if _, err := decodeNode(nil, test.blob); err == nil {
			t.Errorf("%s: decodeNode accepted %x", test.name, test.blob)
		}
	}
}

func TestNodeEncodeDecodeRoundTrip(t *testing.T) {
	full := &fullNode{}
	full.Children[3] = &shortNode{Key: []byte{0x5, 16}, Val: valueNode("v1")}
	full.Children[16] = valueNode("branch value")

	// Collapse by hand: compact-encode the child key the way the hasher
	// does before serializing.
	collapsed := full.copy()
	child := full.Children[3].(*shortNode).copy()
	child.Key = hexToCompact(child.Key)
	collapsed.Children[3] = child

	blob := nodeToBytes(collapsed)
	decoded, err := decodeNode(nil, blob)
	require.NoError(t, err)

	got, ok := decoded.(*fullNode)
	require.True(t, ok, "expected fullNode, got %T", decoded)
	assert.Equal(t, valueNode("branch value"), got.Children[16])
	gotChild, ok := got.Children[3].(*shortNode)
	require.True(t, ok, "expected embedded shortNode, got %T", got.Children[3])
	assert.Equal(t, []byte{0x5, 16}, gotChild.Key)
	assert.Equal(t, valueNode("v1"), gotChild.Val)
}
