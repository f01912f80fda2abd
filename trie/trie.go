// Copyright 2014 The go-ethereum Authors
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

// Package trie implements Merkle Patricia tries.
package trie

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/patriciadb/patriciadb/common"
)

// emptyRoot is the known root hash of an empty trie, keccak256(rlp("")).
var emptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

const (
	// MaxKeyLength bounds the byte length of keys accepted by the trie.
	MaxKeyLength = 1024

	// MaxValueLength bounds the byte length of values accepted by the trie.
	MaxValueLength = 64 * 1024
)

// EmptyRoot returns the root hash of an empty trie.
func EmptyRoot() common.Hash {
	return emptyRoot
}

// Trie is a Merkle Patricia Trie. Use New to create a trie that sits on
// top of a node database. Whenever the trie performs a commit operation,
// the generated nodes will be gathered and staged into the database.
//
// Trie is not safe for concurrent use.
type Trie struct {
	db   *Database
	root node
}

// newFlag returns the cache flag value for a newly created node.
func (t *Trie) newFlag() nodeFlag {
	return nodeFlag{dirty: true}
}

// New creates a trie with an existing root node from db.
//
// If root is the zero hash or the hash of an empty trie, the trie is
// initially empty. Otherwise, New will return a MissingNodeError if the
// root node cannot be found in the database. Accessing the trie loads
// nodes from db on demand.
func New(root common.Hash, db *Database) (*Trie, error) {
	if db == nil {
		panic("trie.New called without a database")
	}
	trie := &Trie{db: db}
	if root != (common.Hash{}) && root != emptyRoot {
		rootnode, err := trie.resolveHash(root[:], nil)
		if err != nil {
			return nil, err
		}
		trie.root = rootnode
	}
	return trie, nil
}

// NewEmpty creates an empty trie on top of db. It never fails.
func NewEmpty(db *Database) *Trie {
	t, _ := New(common.Hash{}, db)
	return t
}

// Get returns the value for key stored in the trie. The value bytes must
// not be modified by the caller. An absent key yields a nil value and no
// error; an error means the trie's data set is unusable (missing or
// corrupt nodes, or a failing store).
func (t *Trie) Get(key []byte) ([]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	value, newroot, didResolve, err := t.get(t.root, keybytesToHex(key), 0)
	if err == nil && didResolve {
		t.root = newroot
	}
	return value, err
}

// MustGet is Get for callers that treat a broken data set as fatal. The
// error is logged and a nil value returned.
func (t *Trie) MustGet(key []byte) []byte {
	value, err := t.Get(key)
	if err != nil {
		log.Error("Unhandled trie error in Trie.Get", "err", err)
	}
	return value
}

func (t *Trie) get(origNode node, key []byte, pos int) (value []byte, newnode node, didResolve bool, err error) {
	switch n := (origNode).(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytes.Equal(n.Key, key[pos:pos+len(n.Key)]) {
			// key not found in trie
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.get(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolveHash(n, key[:pos])
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.get(child, key, pos)
		return value, newnode, true, err
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", origNode, origNode))
	}
}

// Insert associates value with key in the trie. Subsequent calls to Get
// will return value. If value has length zero, any existing value is
// deleted from the trie and calls to Get will return nil.
//
// The value bytes must not be modified by the caller while they are stored
// in the trie. An error means the trie's data set is unusable.
func (t *Trie) Insert(key, value []byte) error {
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if len(value) > MaxValueLength {
		return ErrValueTooLong
	}
	k := keybytesToHex(key)
	if len(value) != 0 {
		_, n, err := t.insert(t.root, nil, k, valueNode(value))
		if err != nil {
			return err
		}
		t.root = n
	} else {
		_, n, err := t.delete(t.root, nil, k)
		if err != nil {
			return err
		}
		t.root = n
	}
	return nil
}

// MustInsert is Insert for callers that treat a broken data set as fatal.
func (t *Trie) MustInsert(key, value []byte) {
	if err := t.Insert(key, value); err != nil {
		log.Error("Unhandled trie error in Trie.Insert", "err", err)
	}
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytes.Equal(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		// If the whole key matches, keep this short node as is
		// and only update the value.
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			return true, &shortNode{n.Key, nn, t.newFlag()}, nil
		}
		// Otherwise branch out at the index where they differ.
		branch := &fullNode{flags: t.newFlag()}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		// Replace this shortNode with the branch if it occurs at index 0.
		if matchlen == 0 {
			return true, branch, nil
		}
		// Otherwise, replace it with a short node leading up to the branch.
		return true, &shortNode{key[:matchlen], branch, t.newFlag()}, nil

	case *fullNode:
		dirty, nn, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn
		return true, n, nil

	case nil:
		return true, &shortNode{key, value, t.newFlag()}, nil

	case hashNode:
		// We've hit a part of the trie that isn't loaded yet. Load
		// the node and insert into it. This leaves all child nodes on
		// the path to the value in the trie.
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.insert(rn, prefix, key, value)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// Delete removes any existing value for key from the trie and returns the
// value that was stored, or nil if the key was absent. Deleting an absent
// key is not an error and leaves the trie unchanged.
func (t *Trie) Delete(key []byte) ([]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	prev, err := t.Get(key)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	_, n, err := t.delete(t.root, nil, keybytesToHex(key))
	if err != nil {
		return nil, err
	}
	t.root = n
	return prev, nil
}

// MustDelete is Delete for callers that treat a broken data set as fatal.
func (t *Trie) MustDelete(key []byte) []byte {
	prev, err := t.Delete(key)
	if err != nil {
		log.Error("Unhandled trie error in Trie.Delete", "err", err)
	}
	return prev
}

// delete returns the new root of the trie with key deleted. It reduces the
// trie to minimal form by simplifying nodes on the way up after deleting
// recursively.
func (t *Trie) delete(n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil // don't replace n on mismatch
		}
		if matchlen == len(key) {
			return true, nil, nil // remove n entirely for whole matches
		}
		// The key is longer than n.Key. Remove the remaining suffix
		// from the subtrie. Child can never be nil here since the
		// subtrie must contain at least two other values with keys
		// longer than n.Key.
		dirty, child, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case *shortNode:
			// Deleting from the subtrie reduced it to another short
			// node. Merge the nodes to avoid creating a shortNode{...,
			// shortNode{...}}. Use concat (which always creates a new
			// slice) instead of append to avoid modifying n.Key since
			// it might be shared with other nodes.
			return true, &shortNode{concat(n.Key, child.Key...), child.Val, t.newFlag()}, nil
		default:
			return true, &shortNode{n.Key, child, t.newFlag()}, nil
		}

	case *fullNode:
		dirty, nn, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn

		// Because n is a full node, it must've contained at least two
		// children before the delete operation. If the new child value
		// is non-nil, n still has at least two children after the
		// deletion, and cannot be reduced to a short node.
		if nn != nil {
			return true, n, nil
		}
		// Reduction:
		// Check how many non-nil entries are left after deleting and
		// reduce the full node to a short node if only one entry is
		// left. Since n must've contained at least two children
		// before deletion (otherwise it would not be a full node) n
		// can never be reduced to nil.
		//
		// When the loop is done, pos contains the index of the single
		// value that is left in n or -2 if n contains at least two
		// values.
		pos := -1
		for i, cld := range &n.Children {
			if cld != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				// If the remaining entry is a short node, it replaces
				// n and its key gets the missing nibble tacked to the
				// front. This avoids creating an invalid
				// shortNode{..., shortNode{...}}. Since the entry
				// might not be loaded yet, resolve it just for this
				// check.
				cnode, err := t.resolve(n.Children[pos], append(prefix, byte(pos)))
				if err != nil {
					return false, nil, err
				}
				if cnode, ok := cnode.(*shortNode); ok {
					k := append([]byte{byte(pos)}, cnode.Key...)
					return true, &shortNode{k, cnode.Val, t.newFlag()}, nil
				}
			}
			// Otherwise, n is replaced by a one-nibble short node
			// containing the child.
			return true, &shortNode{[]byte{byte(pos)}, n.Children[pos], t.newFlag()}, nil
		}
		// n still contains at least two values and cannot be reduced.
		return true, n, nil

	case valueNode:
		return true, nil, nil

	case nil:
		return false, nil, nil

	case hashNode:
		// We've hit a part of the trie that isn't loaded yet. Load
		// the node and delete from it. This leaves all child nodes on
		// the path to the value in the trie.
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.delete(rn, prefix, key)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("%T: invalid node: %v (%v)", n, n, key))
	}
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if n, ok := n.(hashNode); ok {
		return t.resolveHash(n, prefix)
	}
	return n, nil
}

func (t *Trie) resolveHash(n hashNode, prefix []byte) (node, error) {
	hash := common.BytesToHash(n)
	resolved, err := t.db.node(hash)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, &MissingNodeError{NodeHash: hash, Path: common.CopyBytes(prefix)}
	}
	return resolved, nil
}

// Hash returns the root hash of the trie. It does not write to the
// database and can be used even if the trie doesn't have one.
func (t *Trie) Hash() common.Hash {
	hash, cached := t.hashRoot(nil)
	t.root = cached
	return common.BytesToHash(hash.(hashNode))
}

// Commit hashes the trie and stages every node that is referenced by hash
// into the trie database, then flushes the staged set to the durable store
// in one atomic batch. It returns the root hash.
func (t *Trie) Commit() (common.Hash, error) {
	if t.db == nil {
		panic("commit called on trie with nil database")
	}
	hash, cached, err := t.commitRoot()
	if err != nil {
		return common.Hash{}, err
	}
	t.root = cached
	if err := t.db.Commit(); err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash.(hashNode)), nil
}

func (t *Trie) hashRoot(store storeFunc) (node, node) {
	if t.root == nil {
		return hashNode(emptyRoot.Bytes()), nil
	}
	h := newHasher()
	defer returnHasherToPool(h)
	hashed, cached, _ := h.hash(t.root, true, store)
	return hashed, cached
}

func (t *Trie) commitRoot() (node, node, error) {
	if t.root == nil {
		return hashNode(emptyRoot.Bytes()), nil, nil
	}
	h := newHasher()
	defer returnHasherToPool(h)
	return h.hash(t.root, true, func(hash hashNode, enc []byte) error {
		t.db.insert(common.BytesToHash(hash), enc)
		return nil
	})
}

// Root returns the current root node of the trie, mainly for tests and
// debug helpers.
func (t *Trie) Root() common.Hash { return t.Hash() }
