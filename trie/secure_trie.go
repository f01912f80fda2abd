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
	"github.com/patriciadb/patriciadb/common"
)

// SecureTrie wraps a trie with key hashing. In a secure trie, all access
// operations hash the key using keccak256. This prevents calling code from
// creating long chains of nodes that increase the access time.
//
// Contrary to a regular trie, a SecureTrie can only be created with New and
// must have an attached database. The database also stores the preimage of
// each key.
//
// SecureTrie is not safe for concurrent use.
type SecureTrie struct {
	trie        Trie
	hashKeyBuf  [common.HashLength]byte
	secKeyCache map[string][]byte
}

// NewSecure creates a trie with an existing root node from a backing
// database. Key hashing is applied on top of the regular trie semantics,
// see SecureTrie.
func NewSecure(root common.Hash, db *Database) (*SecureTrie, error) {
	if db == nil {
		panic("trie.NewSecure called without a database")
	}
	trie, err := New(root, db)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: *trie, secKeyCache: make(map[string][]byte)}, nil
}

// Get returns the value for key stored in the trie. The value bytes must
// not be modified by the caller.
func (t *SecureTrie) Get(key []byte) ([]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	return t.trie.Get(t.hashKey(key))
}

// Insert associates value with key in the trie. Subsequent calls to Get
// will return value. If value has length zero, any existing value is
// deleted from the trie.
//
// The value bytes must not be modified by the caller while they are stored
// in the trie.
func (t *SecureTrie) Insert(key, value []byte) error {
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	hk := t.hashKey(key)
	if err := t.trie.Insert(hk, value); err != nil {
		return err
	}
	t.secKeyCache[string(hk)] = common.CopyBytes(key)
	return nil
}

// Delete removes any existing value for key from the trie and returns the
// previous value, if any.
func (t *SecureTrie) Delete(key []byte) ([]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	hk := t.hashKey(key)
	delete(t.secKeyCache, string(hk))
	return t.trie.Delete(hk)
}

// GetKey returns the preimage of a hashed key that was previously used to
// store a value.
func (t *SecureTrie) GetKey(shaKey []byte) []byte {
	if key, ok := t.secKeyCache[string(shaKey)]; ok {
		return key
	}
	return t.trie.db.preimage(common.BytesToHash(shaKey))
}

// Prove constructs a Merkle proof for the hashed key, see Trie.Prove.
func (t *SecureTrie) Prove(key []byte) ([][]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}
	return t.trie.Prove(t.hashKey(key))
}

// Hash returns the root hash of the trie. It does not write to the
// database.
func (t *SecureTrie) Hash() common.Hash {
	return t.trie.Hash()
}

// Commit stages the cached key preimages alongside the trie nodes and
// flushes everything to the durable store in one batch.
func (t *SecureTrie) Commit() (common.Hash, error) {
	if len(t.secKeyCache) > 0 {
		for hk, key := range t.secKeyCache {
			t.trie.db.insertPreimage(common.BytesToHash([]byte(hk)), key)
		}
		t.secKeyCache = make(map[string][]byte)
	}
	return t.trie.Commit()
}

// hashKey returns the hash of key as an ephemeral buffer. The caller must
// not hold onto the return value because it will become invalid on the
// next call to hashKey.
func (t *SecureTrie) hashKey(key []byte) []byte {
	h := newHasher()
	h.sha.Reset()
	h.sha.Write(key)
	h.sha.Read(t.hashKeyBuf[:])
	returnHasherToPool(h)
	return t.hashKeyBuf[:]
}
