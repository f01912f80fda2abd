// Copyright 2019 The go-ethereum Authors
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

	"github.com/patriciadb/patriciadb/crypto"
	"github.com/patriciadb/patriciadb/ethdb"
)

func TestDatabaseStagingIsInvisible(t *testing.T) {
	diskdb := ethdb.NewMemDatabase()
	triedb := NewDatabase(diskdb)

	trie := NewEmpty(triedb)
	updateString(trie, "120000", "qwerqwerqwerqwerqwerqwerqwerqwer")
	updateString(trie, "123456", "asdfasdfasdfasdfasdfasdfasdfasdf")

	// Hashing alone must not touch the durable store.
	trie.Hash()
	assert.Equal(t, 0, diskdb.Len(), "Hash leaked nodes to disk")

	root, err := trie.Commit()
	require.NoError(t, err)
	assert.NotZero(t, diskdb.Len(), "Commit wrote nothing")

	// Every persisted node must live under its own hash.
	for _, key := range diskdb.Keys() {
		blob, err := diskdb.Get(key)
		require.NoError(t, err)
		require.Equal(t, key, crypto.Keccak256(blob), "node stored under wrong hash")
	}
	blob, err := triedb.Node(root)
	require.NoError(t, err)
	require.NotNil(t, blob, "root blob not retrievable")
}

func TestDatabaseMissingNode(t *testing.T) {
	triedb := NewDatabase(ethdb.NewMemDatabase())

	n, err := triedb.node(EmptyRoot())
	require.NoError(t, err)
	assert.Nil(t, n, "absent node must resolve to nil, not an error")
}

func TestDatabaseCommitIdempotent(t *testing.T) {
	diskdb := ethdb.NewMemDatabase()
	triedb := NewDatabase(diskdb)

	trie := NewEmpty(triedb)
	updateString(trie, "dog", "qwerqwerqwerqwerqwerqwerqwerqwer")
	root, err := trie.Commit()
	require.NoError(t, err)

	written := diskdb.Len()
	root2, err := trie.Commit()
	require.NoError(t, err)
	assert.Equal(t, root, root2)
	assert.Equal(t, written, diskdb.Len(), "repeated commit rewrote nodes")
}

func TestDatabaseCachedReads(t *testing.T) {
	diskdb := ethdb.NewMemDatabase()
	triedb := NewDatabase(diskdb)

	trie := NewEmpty(triedb)
	updateString(trie, "120000", "qwerqwerqwerqwerqwerqwerqwerqwer")
	updateString(trie, "123456", "asdfasdfasdfasdfasdfasdfasdfasdf")
	root, err := trie.Commit()
	require.NoError(t, err)

	// Wipe the durable store. Reads through the same database layer still
	// succeed from the caches; the data set only becomes unusable once a
	// fresh layer is pointed at the damaged store.
	for _, key := range diskdb.Keys() {
		diskdb.Delete(key)
	}
	reloaded, err := New(root, triedb)
	require.NoError(t, err)
	val, err := reloaded.Get([]byte("120000"))
	require.NoError(t, err)
	assert.Equal(t, []byte("qwerqwerqwerqwerqwerqwerqwerqwer"), val)

	_, err = New(root, NewDatabase(diskdb))
	if _, ok := err.(*MissingNodeError); !ok {
		t.Errorf("expected MissingNodeError from cold database, got %v", err)
	}
}

func TestDatabaseSharedAcrossTries(t *testing.T) {
	triedb := NewDatabase(ethdb.NewMemDatabase())

	trie1 := NewEmpty(triedb)
	updateString(trie1, "120000", "qwerqwerqwerqwerqwerqwerqwerqwer")
	updateString(trie1, "123456", "asdfasdfasdfasdfasdfasdfasdfasdf")
	root, err := trie1.Commit()
	require.NoError(t, err)

	// Two tries loaded from the same database share cached nodes; mutating
	// one must not bleed into the other.
	trie2, err := New(root, triedb)
	require.NoError(t, err)
	trie3, err := New(root, triedb)
	require.NoError(t, err)

	updateString(trie2, "123456", "zxcvzxcvzxcvzxcvzxcvzxcvzxcvzxcv")
	val, err := trie3.Get([]byte("123456"))
	require.NoError(t, err)
	assert.Equal(t, []byte("asdfasdfasdfasdfasdfasdfasdfasdf"), val)
	assert.Equal(t, root, trie3.Hash())
}
