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

// Package ethdb defines the key/value store interfaces consumed by the trie
// and provides the in-process backends.
package ethdb

// IdealBatchSize is the preferred size limit for write batches. Code that
// accumulates writes should flush once a batch grows beyond it.
const IdealBatchSize = 100 * 1024

// Putter wraps the database write operation supported by both batches and
// regular databases.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Deleter wraps the database delete operation supported by both batches and
// regular databases.
type Deleter interface {
	Delete(key []byte) error
}

// Getter wraps the database read operations.
type Getter interface {
	// Get retrieves the value for the given key. It returns a nil slice
	// and no error if the key is not present.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// Database wraps all database operations. All methods are safe for
// concurrent use.
type Database interface {
	Putter
	Deleter
	Getter
	Close()
	NewBatch() Batch
}

// Batch is a write-only database that buffers changes to its host database
// until a final write is called. Write applies the whole batch atomically:
// the host database observes either all buffered changes or none.
type Batch interface {
	Putter
	Deleter
	// ValueSize is the amount of data queued up for writing.
	ValueSize() int
	Write() error
	// Reset resets the batch for reuse.
	Reset()
}
