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
	"errors"
	"fmt"

	"github.com/patriciadb/patriciadb/common"
)

var (
	// ErrKeyTooLong is returned when a key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("trie: key exceeds maximum length")

	// ErrValueTooLong is returned when a value exceeds MaxValueLength.
	ErrValueTooLong = errors.New("trie: value exceeds maximum length")
)

// MissingNodeError is returned by trie functions (Get, Insert, Delete,
// Prove) in the case where a trie node is not present in the local database.
// It contains information necessary for retrieving the missing node. A
// missing node means an incomplete or pruned data set, never an absent key.
type MissingNodeError struct {
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // hex-encoded path to the missing node
}

func (err *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (path %x)", err.NodeHash, err.Path)
}

// EncodingError is returned when stored node data cannot be decoded. It
// indicates corruption of the data set or a protocol mismatch and is never
// silently recovered from.
type EncodingError struct {
	NodeHash common.Hash // hash the data was stored under, if known
	Err      error
}

func (err *EncodingError) Error() string {
	return fmt.Sprintf("invalid encoding of trie node %x: %v", err.NodeHash, err.Err)
}

func (err *EncodingError) Unwrap() error { return err.Err }
