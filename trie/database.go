// Copyright 2018 The go-ethereum Authors
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

	"github.com/coocood/freecache"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru"

	"github.com/patriciadb/patriciadb/common"
	"github.com/patriciadb/patriciadb/ethdb"
)

var (
	memcacheCleanHitMeter   = metrics.NewRegisteredMeter("trie/memcache/clean/hit", nil)
	memcacheCleanMissMeter  = metrics.NewRegisteredMeter("trie/memcache/clean/miss", nil)
	memcacheCleanReadMeter  = metrics.NewRegisteredMeter("trie/memcache/clean/read", nil)
	memcacheNodeHitMeter    = metrics.NewRegisteredMeter("trie/memcache/node/hit", nil)
	memcacheCommitNodeMeter = metrics.NewRegisteredMeter("trie/memcache/commit/nodes", nil)
	memcacheCommitSizeMeter = metrics.NewRegisteredMeter("trie/memcache/commit/size", nil)
)

// secureKeyPrefix is the database key prefix under which preimages of hashed
// trie keys are stored.
var secureKeyPrefix = []byte("secure-key-")

const (
	// defaultCleanCacheMB is the size of the clean blob cache when none is
	// requested explicitly.
	defaultCleanCacheMB = 16

	// decodedCacheEntries bounds the number of expanded nodes kept around.
	decodedCacheEntries = 4096
)

// Database is the intermediate layer between the trie and the durable key
// value store. It accumulates the node writes of a commit in memory and
// flushes them in a single atomic batch, and it caches recently used nodes
// in two tiers: encoded blobs of persisted nodes and fully decoded nodes.
//
// A Database is safe for concurrent use by multiple tries.
type Database struct {
	diskdb ethdb.Database // persistent storage for committed nodes

	cleans  *freecache.Cache       // blobs of nodes known to be on disk
	decoded *lru.Cache             // recently expanded nodes, keyed by hash
	dirties *linkedhashmap.Map     // staged node blobs, insertion ordered
	preimg  map[common.Hash][]byte // staged key preimages (secure tries)

	lock sync.RWMutex
}

// NewDatabase creates a node database around the given durable store with
// default cache sizes.
func NewDatabase(diskdb ethdb.Database) *Database {
	return NewDatabaseWithCache(diskdb, defaultCleanCacheMB)
}

// NewDatabaseWithCache creates a node database with a clean blob cache of
// the given size in megabytes.
func NewDatabaseWithCache(diskdb ethdb.Database, cacheMB int) *Database {
	var cleans *freecache.Cache
	if cacheMB > 0 {
		cleans = freecache.NewCache(cacheMB * 1024 * 1024)
	}
	decoded, _ := lru.New(decodedCacheEntries)
	return &Database{
		diskdb:  diskdb,
		cleans:  cleans,
		decoded: decoded,
		dirties: linkedhashmap.New(),
		preimg:  make(map[common.Hash][]byte),
	}
}

// DiskDB returns the underlying durable store.
func (db *Database) DiskDB() ethdb.Database {
	return db.diskdb
}

// insert stages the blob of a node for the next Commit. Nodes are staged
// bottom-up by the hasher, so iteration order of the dirty set never yields
// a parent before its children.
func (db *Database) insert(hash common.Hash, blob []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.dirties.Get(hash); ok {
		return
	}
	db.dirties.Put(hash, common.CopyBytes(blob))
}

// insertPreimage stages the preimage of a hashed trie key. The blob is
// persisted together with the node writes of the next Commit.
func (db *Database) insertPreimage(hash common.Hash, preimage []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.preimg[hash]; ok {
		return
	}
	db.preimg[hash] = common.CopyBytes(preimage)
}

// node retrieves and expands the node with the given hash, checking the
// caches before hitting the durable store. It returns nil without an error
// if the node is not present anywhere; converting that into a
// MissingNodeError is up to the caller, which knows the path.
func (db *Database) node(hash common.Hash) (node, error) {
	// Expanded nodes are shared between tries, hand out copies so that
	// callers can mutate their instance freely.
	if n, ok := db.decoded.Get(hash); ok {
		memcacheNodeHitMeter.Mark(1)
		return copyNode(n.(node)), nil
	}
	blob, err := db.Node(hash)
	if blob == nil || err != nil {
		return nil, err
	}
	n, err := decodeNode(hash[:], blob)
	if err != nil {
		return nil, &EncodingError{NodeHash: hash, Err: err}
	}
	db.decoded.Add(hash, n)
	return copyNode(n), nil
}

// Node retrieves the encoded blob of the node with the given hash. A nil
// blob with a nil error means the node is not present.
func (db *Database) Node(hash common.Hash) ([]byte, error) {
	db.lock.RLock()
	dirty, ok := db.dirties.Get(hash)
	db.lock.RUnlock()
	if ok {
		return dirty.([]byte), nil
	}
	if db.cleans != nil {
		if blob, err := db.cleans.Get(hash[:]); err == nil {
			memcacheCleanHitMeter.Mark(1)
			memcacheCleanReadMeter.Mark(int64(len(blob)))
			return blob, nil
		}
	}
	memcacheCleanMissMeter.Mark(1)
	blob, err := db.diskdb.Get(hash[:])
	if err != nil || blob == nil {
		return nil, err
	}
	if db.cleans != nil {
		db.cleans.Set(hash[:], blob, 0)
	}
	return blob, nil
}

// preimage retrieves a cached or stored trie key preimage.
func (db *Database) preimage(hash common.Hash) []byte {
	db.lock.RLock()
	preimage, ok := db.preimg[hash]
	db.lock.RUnlock()
	if ok {
		return preimage
	}
	blob, _ := db.diskdb.Get(append(secureKeyPrefix, hash[:]...))
	return blob
}

// Commit writes all staged nodes and preimages to the durable store in a
// single batch, so a logical trie mutation hits disk all-or-nothing. On
// success the staged nodes are promoted into the clean cache.
func (db *Database) Commit() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.dirties.Size() == 0 && len(db.preimg) == 0 {
		return nil
	}
	batch := db.diskdb.NewBatch()
	it := db.dirties.Iterator()
	for it.Next() {
		hash, blob := it.Key().(common.Hash), it.Value().([]byte)
		if err := batch.Put(hash[:], blob); err != nil {
			return err
		}
	}
	for hash, preimage := range db.preimg {
		if err := batch.Put(append(secureKeyPrefix, hash[:]...), preimage); err != nil {
			return err
		}
	}
	nodes, size := db.dirties.Size(), batch.ValueSize()
	if err := batch.Write(); err != nil {
		return err
	}
	it = db.dirties.Iterator()
	for it.Next() {
		if db.cleans != nil {
			hash := it.Key().(common.Hash)
			db.cleans.Set(hash[:], it.Value().([]byte), 0)
		}
	}
	db.dirties.Clear()
	db.preimg = make(map[common.Hash][]byte)

	memcacheCommitNodeMeter.Mark(int64(nodes))
	memcacheCommitSizeMeter.Mark(int64(size))
	log.Debug("Persisted trie nodes", "nodes", nodes, "size", size)
	return nil
}

// copyNode clones an expanded node deeply enough that the caller may mutate
// it without affecting the cached instance. Hash and value nodes are
// immutable and shared; embedded children are small, so the recursion stays
// shallow.
func copyNode(n node) node {
	switch n := n.(type) {
	case *shortNode:
		cpy := *n
		cpy.Val = copyNode(n.Val)
		return &cpy
	case *fullNode:
		cpy := *n
		for i, child := range n.Children {
			cpy.Children[i] = copyNode(child)
		}
		return &cpy
	default:
		return n
	}
}
