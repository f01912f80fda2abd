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

package trie

import (
	"bytes"
	"fmt"

	"github.com/patriciadb/patriciadb/common"
	"github.com/patriciadb/patriciadb/crypto"
)

// maxProofElements bounds the number of nodes accepted in a single proof.
// A valid path can never be longer than one node per key nibble plus the
// root and a terminal node.
const maxProofElements = 4*MaxKeyLength + 2

// Prove constructs a Merkle proof for key. The result contains the encoded
// nodes on the path to the value at key, ordered from the root down, with
// the root always included and deeper nodes included only when they are
// referenced by hash (embedded nodes travel inside their parent's
// encoding).
//
// If the trie does not contain a value for key, the returned proof
// contains all nodes of the longest existing prefix of the key, proving
// the absence of the key.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	// Collect all nodes on the path to key.
	var (
		prefix []byte
		nodes  []node
	)
	keyHex := keybytesToHex(key)
	tn := t.root
	for len(keyHex) > 0 && tn != nil {
		switch n := tn.(type) {
		case *shortNode:
			if len(keyHex) < len(n.Key) || !bytes.Equal(n.Key, keyHex[:len(n.Key)]) {
				// The trie doesn't contain the key.
				tn = nil
			} else {
				tn = n.Val
				prefix = append(prefix, n.Key...)
				keyHex = keyHex[len(n.Key):]
			}
			nodes = append(nodes, n)
		case *fullNode:
			tn = n.Children[keyHex[0]]
			prefix = append(prefix, keyHex[0])
			keyHex = keyHex[1:]
			nodes = append(nodes, n)
		case hashNode:
			var err error
			tn, err = t.resolveHash(n, prefix)
			if err != nil {
				return nil, err
			}
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
	h := newHasher()
	defer returnHasherToPool(h)

	var proof [][]byte
	for i, n := range nodes {
		// The collapsed node must be encoded exactly as it is referenced
		// by its parent, so run it through the same hashing flow.
		collapsed, _, err := h.hashChildren(n, nil)
		if err != nil {
			return nil, err
		}
		hashed, err := h.shortcircuit(collapsed, false, nil)
		if err != nil {
			return nil, err
		}
		if _, ok := hashed.(hashNode); ok || i == 0 {
			// The node is referenced by hash, or it is the root; either
			// way it is an element of the proof itself.
			proof = append(proof, nodeToBytes(collapsed))
		}
	}
	return proof, nil
}

// VerifyProof checks a Merkle proof against a root hash without any access
// to the underlying trie or database. It returns true exactly when proof is
// a valid path for key in the trie with the given root and that path ends
// in expectedValue; a nil expectedValue asserts the absence of the key.
//
// Any malformed, truncated or padded proof yields false, never an error.
func VerifyProof(rootHash common.Hash, key []byte, expectedValue []byte, proof [][]byte) bool {
	if len(key) > MaxKeyLength || len(proof) > maxProofElements {
		return false
	}
	if len(proof) == 0 {
		// Only the empty trie proves anything with no nodes at all: the
		// absence of every key.
		return rootHash == emptyRoot && expectedValue == nil
	}
	keyHex := keybytesToHex(key)
	wantHash := rootHash.Bytes()
	for i := 0; ; i++ {
		if i >= len(proof) {
			return false // path leads beyond the proof
		}
		buf := proof[i]
		if !bytes.Equal(crypto.Keccak256(buf), wantHash) {
			return false
		}
		n, err := decodeNode(wantHash, buf)
		if err != nil {
			return false
		}
		keyrest, cld := proofStep(n, keyHex)
		switch cld := cld.(type) {
		case nil:
			// The trie provably doesn't contain the key. The absence
			// node must be the last proof element.
			return expectedValue == nil && i == len(proof)-1
		case hashNode:
			keyHex = keyrest
			wantHash = cld
		case valueNode:
			return i == len(proof)-1 && expectedValue != nil && bytes.Equal(cld, expectedValue)
		}
	}
}

// proofStep walks into n along key until it reaches a node that cannot be
// followed without further proof elements: a hash reference, a value, or a
// dead end (nil). Embedded children are traversed in place.
func proofStep(tn node, key []byte) ([]byte, node) {
	for {
		switch n := tn.(type) {
		case *shortNode:
			if len(key) < len(n.Key) || !bytes.Equal(n.Key, key[:len(n.Key)]) {
				return nil, nil
			}
			tn = n.Val
			key = key[len(n.Key):]
		case *fullNode:
			tn = n.Children[key[0]]
			key = key[1:]
		case hashNode:
			return key, n
		case nil:
			return key, nil
		case valueNode:
			return nil, n
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
}
