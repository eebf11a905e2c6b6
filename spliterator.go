// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"lukechampine.com/uint128"
)

// Spliterator traverses the added nodes of a sub-tree in natural order, or
// in reverse, and can split off a leading part of its remaining range in
// constant time for divide and conquer processing.
//
// A spliterator covers either a whole sub-tree, or a single node followed by
// a sub-tree. Splitting reuses the tree's own shape: the leading child
// sub-tree goes to the new spliterator and the remainder becomes the node
// followed by the trailing child sub-tree.
type Spliterator[E Key[E], V any] struct {
	forward bool

	// leading node, nil when the range is the whole sub-tree
	node    *TrieNode[E, V]
	subtree *TrieNode[E, V]

	// set once traversal starts, splitting is no longer possible
	iterator  NodeIterator[E, V]
	started   bool
	remaining int

	tracker *changeTracker
	version uint128.Uint128
}

// Spliterator returns a splittable traversal of the added nodes of the sub-tree.
func (n *TrieNode[E, V]) Spliterator(forward bool) *Spliterator[E, V] {
	s := &Spliterator[E, V]{forward: forward, subtree: n}
	if n != nil {
		s.tracker = n.tracker
		s.version = n.tracker.current()
	}
	return s
}

// EstimateSize returns the number of nodes the spliterator will visit,
// which is exact until traversal starts.
func (s *Spliterator[E, V]) EstimateSize() int {
	if s.started {
		return s.remaining
	}
	size := s.subtree.Size()
	if s.node.IsAdded() {
		size++
	}
	return size
}

// TrySplit splits off the leading part of the remaining range into a new
// spliterator, or returns nil when the range cannot be split.
func (s *Spliterator[E, V]) TrySplit() *Spliterator[E, V] {
	if s.started || s.EstimateSize() <= 1 {
		return nil
	}
	s.tracker.checkUnchanged(s.version)
	subtree := s.subtree
	if subtree == nil {
		return nil
	}
	leading, trailing := subtree.lower, subtree.upper
	if !s.forward {
		leading, trailing = trailing, leading
	}
	prefix := &Spliterator[E, V]{
		forward: s.forward,
		tracker: s.tracker,
		version: s.version,
	}
	if s.node == nil {
		if leading == nil {
			// nothing precedes the sub-tree root, split it from the rest
			if !subtree.added {
				s.node, s.subtree = subtree, trailing
				return s.TrySplit()
			}
			prefix.node = subtree
			s.subtree = trailing
			return prefix
		}
		prefix.subtree = leading
	} else {
		prefix.node, prefix.subtree = s.node, leading
	}
	s.node, s.subtree = subtree, trailing
	if prefix.EstimateSize() == 0 {
		return s.TrySplit()
	}
	return prefix
}

func (s *Spliterator[E, V]) start() {
	if s.started {
		return
	}
	s.remaining = s.EstimateSize()
	s.started = true
	s.tracker.checkUnchanged(s.version)
	rest := s.subtree.naturalIterator(s.forward, true)
	rest.tracker, rest.version = s.tracker, s.version
	if s.node.IsAdded() {
		s.iterator = &leadingNodeIterator[E, V]{leading: s.node, rest: rest}
	} else {
		s.iterator = rest
	}
}

// TryAdvance calls action with the next node, returning false when the
// traversal is over.
func (s *Spliterator[E, V]) TryAdvance(action func(*TrieNode[E, V])) bool {
	s.start()
	next := s.iterator.Next()
	if next == nil {
		return false
	}
	s.remaining--
	action(next)
	return true
}

// ForEachRemaining calls action with each remaining node.
func (s *Spliterator[E, V]) ForEachRemaining(action func(*TrieNode[E, V])) {
	s.start()
	for next := s.iterator.Next(); next != nil; next = s.iterator.Next() {
		s.remaining--
		action(next)
	}
}

// leadingNodeIterator returns one node before the nodes of another iterator.
type leadingNodeIterator[E Key[E], V any] struct {
	leading *TrieNode[E, V]
	rest    *stepIterator[E, V]
	onRest  bool
}

func (it *leadingNodeIterator[E, V]) HasNext() bool {
	if !it.onRest {
		it.rest.tracker.checkUnchanged(it.rest.version)
		return true
	}
	return it.rest.HasNext()
}

func (it *leadingNodeIterator[E, V]) Next() *TrieNode[E, V] {
	if !it.onRest {
		it.rest.tracker.checkUnchanged(it.rest.version)
		it.onRest = true
		return it.leading
	}
	return it.rest.Next()
}
