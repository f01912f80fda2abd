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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patriciadb/patriciadb/crypto"
)

// TestInlineHashBoundary pins the reference policy at its exact edge: a node
// whose encoding is 31 bytes stays embedded in its parent, one byte more and
// it becomes a keccak reference.
func TestInlineHashBoundary(t *testing.T) {
	h := newHasher()
	defer returnHasherToPool(h)

	// A collapsed leaf with a 3-nibble key carries 5 bytes of encoding
	// overhead, so the value length steers the total across the boundary.
	build := func(vlen int) *shortNode {
		return &shortNode{
			Key: hexToCompact([]byte{1, 2, 3, 16}),
			Val: valueNode(bytes.Repeat([]byte{0x61}, vlen)),
		}
	}

	small := build(26)
	require.Len(t, nodeToBytes(small), 31, "test needs an exactly 31-byte encoding")
	n, err := h.shortcircuit(small, false, nil)
	require.NoError(t, err)
	assert.Equal(t, node(small), n, "31-byte node must stay inline")

	big := build(27)
	require.Len(t, nodeToBytes(big), 32, "test needs an exactly 32-byte encoding")
	n, err = h.shortcircuit(big, false, nil)
	require.NoError(t, err)
	hash, ok := n.(hashNode)
	require.True(t, ok, "32-byte node must be hash-referenced, got %T", n)
	assert.Equal(t, crypto.Keccak256(nodeToBytes(big)), []byte(hash))

	// The root is referenced by hash no matter how small it encodes.
	n, err = h.shortcircuit(build(26), true, nil)
	require.NoError(t, err)
	_, ok = n.(hashNode)
	assert.True(t, ok, "forced root must be hash-referenced")
}

// TestInlineBoundaryRoundTrip drives the same edge through the public API:
// both variants must commit and reload cleanly whether the leaf travels
// inside its parent or as a standalone database node.
func TestInlineBoundaryRoundTrip(t *testing.T) {
	for _, vlen := range []int{26, 27} {
		trie := newEmpty()
		key := []byte{0x12, 0x34}
		val := bytes.Repeat([]byte{0x61}, vlen)
		require.NoError(t, trie.Insert(key, val))
		require.NoError(t, trie.Insert([]byte{0x12, 0x99}, []byte("sibling")))

		root, err := trie.Commit()
		require.NoError(t, err)

		reloaded, err := New(root, trie.db)
		require.NoError(t, err)
		got, err := reloaded.Get(key)
		require.NoError(t, err)
		assert.Equal(t, val, got, "vlen=%d", vlen)
	}
}
