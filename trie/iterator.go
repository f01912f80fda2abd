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

package trie

import (
	"context"
	"errors"

	"github.com/patriciadb/patriciadb/common"
)

// NodeIterator is an iterator to traverse the trie pre-order.
type NodeIterator interface {
	// Next moves the iterator to the next node. If the parameter is false,
	// any child nodes of the current node are skipped. It returns false
	// when the iteration ends or fails; the two cases are told apart by
	// Error.
	Next(bool) bool

	// Error returns the error status of the iterator: nil on clean end of
	// iteration, the cancellation cause when the walk's context expired,
	// or the failure that aborted the walk.
	Error() error

	// Hash returns the hash of the current node, or the zero hash for
	// nodes embedded in their parent.
	Hash() common.Hash

	// Parent returns the hash of the nearest hash-referenced ancestor of
	// the current node.
	Parent() common.Hash

	// Path returns the hex-encoded path to the current node. Callers must
	// not retain references to the return value after calling Next.
	Path() []byte

	// Leaf returns true iff the current node is a leaf.
	Leaf() bool

	// LeafKey returns the key of the leaf, in keybytes encoding. Callers
	// must not retain references to the value after calling Next. Panics
	// off a leaf.
	LeafKey() []byte

	// LeafBlob returns the value of the leaf. Callers must not retain
	// references to the value after calling Next. Panics off a leaf.
	LeafBlob() []byte
}

// errIteratorEnd is stored in nodeIterator.err when iteration is done.
var errIteratorEnd = errors.New("end of iteration")

// nodeIteratorState represents the iteration state at one particular node
// of the trie, which can be resumed at a later invocation.
type nodeIteratorState struct {
	hash    common.Hash // Hash of the node being iterated (nil if not standalone)
	node    node        // Trie node being iterated
	parent  common.Hash // Hash of the first full ancestor node (nil if current is the root)
	index   int         // Child to be processed next
	pathlen int         // Length of the path to this node
}

type nodeIterator struct {
	trie  *Trie               // Trie being iterated
	ctx   context.Context     // Checked between node visits
	stack []*nodeIteratorState // Hierarchy of trie nodes persisting the iteration state
	path  []byte              // Path to the current node
	err   error               // Failure set in case of an internal error in the iterator
}

// NodeIterator returns an iterator over all nodes of the trie. The context
// is consulted between node visits so that long walks over large tries can
// be abandoned.
func (t *Trie) NodeIterator(ctx context.Context) NodeIterator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &nodeIterator{trie: t, ctx: ctx}
}

func (it *nodeIterator) Hash() common.Hash {
	if len(it.stack) == 0 {
		return common.Hash{}
	}
	return it.stack[len(it.stack)-1].hash
}

func (it *nodeIterator) Parent() common.Hash {
	if len(it.stack) == 0 {
		return common.Hash{}
	}
	return it.stack[len(it.stack)-1].parent
}

func (it *nodeIterator) Leaf() bool {
	return hasTerm(it.path)
}

func (it *nodeIterator) LeafKey() []byte {
	if len(it.stack) > 0 {
		if _, ok := it.stack[len(it.stack)-1].node.(valueNode); ok {
			return hexToKeybytes(it.path)
		}
	}
	panic("not at leaf")
}

func (it *nodeIterator) LeafBlob() []byte {
	if len(it.stack) > 0 {
		if n, ok := it.stack[len(it.stack)-1].node.(valueNode); ok {
			return n
		}
	}
	panic("not at leaf")
}

func (it *nodeIterator) Path() []byte {
	return it.path
}

func (it *nodeIterator) Error() error {
	if it.err == errIteratorEnd {
		return nil
	}
	return it.err
}

// Next moves the iterator to the next node, returning whether there are any
// further nodes. In case of an internal error this method returns false and
// sets the Error field to the encountered failure.
func (it *nodeIterator) Next(descend bool) bool {
	if it.err != nil {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = err
		return false
	}
	state, parentIndex, path, err := it.peek(descend)
	if err != nil {
		it.err = err
		return false
	}
	it.push(state, parentIndex, path)
	return true
}

// peek creates the next state of the iterator.
func (it *nodeIterator) peek(descend bool) (*nodeIteratorState, *int, []byte, error) {
	if len(it.stack) == 0 {
		// Initialize the iterator if we've just started.
		root := it.trie.Hash()
		state := &nodeIteratorState{node: it.trie.root, index: -1}
		if root != emptyRoot {
			state.hash = root
		}
		if state.node == nil {
			return nil, nil, nil, errIteratorEnd
		}
		return state, nil, nil, nil
	}
	if !descend {
		// If we're skipping children, pop the current node first
		it.pop()
	}
	// Continue iteration to the next child
	for len(it.stack) > 0 {
		parent := it.stack[len(it.stack)-1]
		ancestor := parent.hash
		if (ancestor == common.Hash{}) {
			ancestor = parent.parent
		}
		state, path, ok := it.nextChild(parent, ancestor)
		if ok {
			if err := state.resolve(it.trie, path); err != nil {
				return parent, &parent.index, path, err
			}
			return state, &parent.index, path, nil
		}
		// No more child nodes, move back up.
		it.pop()
	}
	return nil, nil, nil, errIteratorEnd
}

func (st *nodeIteratorState) resolve(tr *Trie, path []byte) error {
	if hash, ok := st.node.(hashNode); ok {
		resolved, err := tr.resolveHash(hash, path)
		if err != nil {
			return err
		}
		st.node = resolved
		st.hash = common.BytesToHash(hash)
	}
	return nil
}

func (it *nodeIterator) nextChild(parent *nodeIteratorState, ancestor common.Hash) (*nodeIteratorState, []byte, bool) {
	switch node := parent.node.(type) {
	case *fullNode:
		// Full node, move to the first non-nil child.
		for i := parent.index + 1; i < len(node.Children); i++ {
			child := node.Children[i]
			if child != nil {
				hash, _ := child.cache()
				state := &nodeIteratorState{
					hash:    common.BytesToHash(hash),
					node:    child,
					parent:  ancestor,
					index:   -1,
					pathlen: len(it.path),
				}
				path := append(it.path, byte(i))
				parent.index = i - 1
				return state, path, true
			}
		}
	case *shortNode:
		// Short node, return the pointer singleton child
		if parent.index < 0 {
			hash, _ := node.Val.cache()
			state := &nodeIteratorState{
				hash:    common.BytesToHash(hash),
				node:    node.Val,
				parent:  ancestor,
				index:   -1,
				pathlen: len(it.path),
			}
			path := append(it.path, node.Key...)
			return state, path, true
		}
	}
	return parent, it.path, false
}

func (it *nodeIterator) push(state *nodeIteratorState, parentIndex *int, path []byte) {
	it.path = path
	it.stack = append(it.stack, state)
	if parentIndex != nil {
		*parentIndex++
	}
}

func (it *nodeIterator) pop() {
	parent := it.stack[len(it.stack)-1]
	it.path = it.path[:parent.pathlen]
	it.stack = it.stack[:len(it.stack)-1]
}

// Stats aggregates structural counters of a trie, gathered by a full walk.
type Stats struct {
	BranchNodes    int // branch nodes
	ExtensionNodes int // path-compressed nodes without a terminator
	LeafNodes      int // path-compressed nodes holding a value
	Values         int // stored values, including branch value slots
	MaxDepth       int // deepest path, in nibbles
}

// Stats walks the whole trie and returns its structural statistics. The
// context is checked between node visits; walks over large tries can be
// abandoned through it.
func (t *Trie) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	it := t.NodeIterator(ctx).(*nodeIterator)
	for it.Next(true) {
		switch n := it.stack[len(it.stack)-1].node.(type) {
		case *fullNode:
			s.BranchNodes++
		case *shortNode:
			if hasTerm(n.Key) {
				s.LeafNodes++
			} else {
				s.ExtensionNodes++
			}
		case valueNode:
			s.Values++
		}
		if depth := len(it.path); depth > s.MaxDepth {
			s.MaxDepth = depth
		}
	}
	return s, it.Error()
}
