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
	"sync"

	"github.com/patriciadb/patriciadb/common"
	"github.com/patriciadb/patriciadb/crypto"
	"github.com/patriciadb/patriciadb/rlp"
)

// storeFunc receives the hash and canonical encoding of every node that is
// referenced by hash rather than inlined. It is the persistence hook used
// during commits; a nil storeFunc hashes without persisting.
type storeFunc func(hash hashNode, enc []byte) error

// hasher computes node hashes bottom-up, deciding for every child whether
// it is embedded in its parent (encoding shorter than 32 bytes) or replaced
// by its keccak-256 hash. This is the single place where the inline-vs-hash
// policy is applied.
type hasher struct {
	sha    crypto.KeccakState
	tmp    []byte
	encbuf rlp.EncoderBuffer
}

// hashers are pooled; the keccak state and scratch buffers are reused.
var hasherPool = sync.Pool{
	New: func() interface{} {
		return &hasher{
			sha:    crypto.NewKeccakState(),
			tmp:    make([]byte, 0, 550), // cap is as large as a full fullNode
			encbuf: rlp.NewEncoderBuffer(),
		}
	},
}

func newHasher() *hasher {
	return hasherPool.Get().(*hasher)
}

func returnHasherToPool(h *hasher) {
	hasherPool.Put(h)
}

// hash collapses a node down into a hash node, also returning a copy of the
// original node initialized with the computed hash to replace the original
// one. With force set, the node is hashed and stored even if its encoding
// is shorter than 32 bytes; this is used for the root.
func (h *hasher) hash(n node, force bool, store storeFunc) (node, node, error) {
	// If we're not storing the node, just hashing, use available cached data.
	if hash, dirty := n.cache(); hash != nil {
		if store == nil || !dirty {
			return hash, n, nil
		}
	}
	// Trie not processed yet or needs storage, walk the children.
	collapsed, cached, err := h.hashChildren(n, store)
	if err != nil {
		return hashNode{}, n, err
	}
	hashed, err := h.shortcircuit(collapsed, force, store)
	if err != nil {
		return hashNode{}, n, err
	}
	// Cache the hash of the node for later reuse and remove the dirty flag
	// in commit mode. It's fine to assign these values directly without
	// copying the node first because hashChildren copies it.
	cachedHash, _ := hashed.(hashNode)
	switch cn := cached.(type) {
	case *shortNode:
		cn.flags.hash = cachedHash
		if store != nil {
			cn.flags.dirty = false
		}
	case *fullNode:
		cn.flags.hash = cachedHash
		if store != nil {
			cn.flags.dirty = false
		}
	}
	return hashed, cached, nil
}

// hashChildren replaces the children of a node with their hashes if the
// encoded size of the child is larger than a hash, returning the collapsed
// node as well as a replacement for the original node with the child hashes
// cached in.
func (h *hasher) hashChildren(original node, store storeFunc) (node, node, error) {
	var err error
	switch n := original.(type) {
	case *shortNode:
		// Hash the short node's child, caching the newly hashed subtree.
		collapsed, cached := n.copy(), n.copy()
		collapsed.Key = hexToCompact(n.Key)
		cached.Key = common.CopyBytes(n.Key)
		if _, ok := n.Val.(valueNode); !ok {
			collapsed.Val, cached.Val, err = h.hash(n.Val, false, store)
			if err != nil {
				return original, original, err
			}
		}
		return collapsed, cached, nil
	case *fullNode:
		// Hash the full node's children, caching the newly hashed subtrees.
		collapsed, cached := n.copy(), n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				collapsed.Children[i], cached.Children[i], err = h.hash(n.Children[i], false, store)
				if err != nil {
					return original, original, err
				}
			}
		}
		cached.Children[16] = n.Children[16]
		return collapsed, cached, nil
	case hashNode:
		return n, original, nil
	default:
		// Value and nil nodes are never hashed on their own.
		panic("impossible")
	}
}

// shortcircuit encodes the collapsed node and decides its reference form:
// nodes whose encoding is shorter than 32 bytes stay inline (the node
// itself is returned), larger ones are replaced by their hash and handed to
// the store hook.
func (h *hasher) shortcircuit(n node, force bool, store storeFunc) (node, error) {
	if _, isHash := n.(hashNode); n == nil || isHash {
		return n, nil
	}
	// Generate the RLP encoding of the node.
	enc := h.encodedBytes(n)
	if len(enc) < 32 && !force {
		return n, nil // Nodes smaller than 32 bytes are stored inside their parent
	}
	// Larger nodes are replaced by their hash and stored in the database.
	hash, _ := n.cache()
	if hash == nil {
		hash = h.hashData(enc)
	}
	if store != nil {
		if err := store(hash, enc); err != nil {
			return nil, err
		}
	}
	return hash, nil
}

// encodedBytes writes the canonical encoding of n into the hasher's
// scratch buffer and returns it. The returned slice is only valid until
// the next call.
func (h *hasher) encodedBytes(n node) []byte {
	h.encbuf.Reset()
	n.encode(h.encbuf)
	h.tmp = h.encbuf.AppendToBytes(h.tmp[:0])
	return h.tmp
}

// hashData hashes the provided data.
func (h *hasher) hashData(data []byte) hashNode {
	n := make(hashNode, 32)
	h.sha.Reset()
	h.sha.Write(data)
	h.sha.Read(n)
	return n
}
