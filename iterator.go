// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"iter"

	"lukechampine.com/uint128"
)

// NodeIterator iterates through trie nodes. Next returns nil once the
// iteration is over. Both methods panic with an error wrapping
// ErrConcurrentModification when the trie changed through any other handle
// since the iterator was created.
type NodeIterator[E Key[E], V any] interface {
	HasNext() bool
	Next() *TrieNode[E, V]
}

// NodeIteratorRem is a NodeIterator that can remove the node most recently
// returned by Next. Remove returns that node, or nil when there is none.
type NodeIteratorRem[E Key[E], V any] interface {
	NodeIterator[E, V]
	Remove() *TrieNode[E, V]
}

// CachingNodeIterator lets the caller attach a value to the sub-nodes of the
// node most recently returned by Next, and read it back when each of those
// sub-nodes is returned in turn.
type CachingNodeIterator[E Key[E], V any] interface {
	NodeIteratorRem[E, V]

	// GetCached returns the value cached with the current node by its parent.
	GetCached() any

	// CacheWithLowerSubNode caches a value with the lower sub-node of the
	// current node, returning false when there is no such sub-node.
	CacheWithLowerSubNode(any) bool

	// CacheWithUpperSubNode caches a value with the upper sub-node of the
	// current node, returning false when there is no such sub-node.
	CacheWithUpperSubNode(any) bool
}

// KeyIterator iterates through trie keys. Next and Remove return the zero
// key when there is nothing to return.
type KeyIterator[E Key[E]] interface {
	HasNext() bool
	Next() E
	Remove() E
}

// stepIterator walks nodes with a step function, one traversal order each.
type stepIterator[E Key[E], V any] struct {
	step func(*TrieNode[E, V]) *TrieNode[E, V]

	// ends the iteration at the first node failing it
	limit func(*TrieNode[E, V]) bool

	next, current *TrieNode[E, V]

	// removing the current node can detach a junction already chosen as next
	restepDetached bool

	tracker *changeTracker
	version uint128.Uint128
}

func newStepIterator[E Key[E], V any](
	first *TrieNode[E, V],
	step func(*TrieNode[E, V]) *TrieNode[E, V],
	tracker *changeTracker,
) *stepIterator[E, V] {
	return &stepIterator[E, V]{
		step:    step,
		next:    first,
		tracker: tracker,
		version: tracker.current(),
	}
}

func (it *stepIterator[E, V]) settle() {
	for it.restepDetached && it.next != nil && it.next.isDetached() {
		it.next = it.step(it.next)
	}
	if it.next != nil && it.limit != nil && !it.limit(it.next) {
		it.next = nil
	}
}

func (it *stepIterator[E, V]) HasNext() bool {
	if it.next == nil {
		return false
	}
	it.tracker.checkUnchanged(it.version)
	it.settle()
	return it.next != nil
}

func (it *stepIterator[E, V]) Next() *TrieNode[E, V] {
	if !it.HasNext() {
		it.current = nil
		return nil
	}
	it.current = it.next
	it.next = it.step(it.current)
	return it.current
}

func (it *stepIterator[E, V]) Remove() *TrieNode[E, V] {
	if it.current == nil {
		return nil
	}
	it.tracker.checkUnchanged(it.version)
	removed := it.current
	it.current = nil
	removed.Remove()
	it.version = it.tracker.current()
	return removed
}

func addedOnly[E Key[E], V any](step func(*TrieNode[E, V]) *TrieNode[E, V]) func(*TrieNode[E, V]) *TrieNode[E, V] {
	return func(n *TrieNode[E, V]) *TrieNode[E, V] {
		next := step(n)
		for next != nil && !next.added {
			next = step(next)
		}
		return next
	}
}

func firstMatching[E Key[E], V any](first *TrieNode[E, V], step func(*TrieNode[E, V]) *TrieNode[E, V]) *TrieNode[E, V] {
	if first == nil || first.added {
		return first
	}
	return step(first)
}

func emptyIterator[E Key[E], V any]() *stepIterator[E, V] {
	return newStepIterator[E, V](nil, nil, nil)
}

func (n *TrieNode[E, V]) naturalIterator(forward, added bool) *stepIterator[E, V] {
	if n == nil {
		return emptyIterator[E, V]()
	}
	bound := n
	var first *TrieNode[E, V]
	var step func(*TrieNode[E, V]) *TrieNode[E, V]
	if forward {
		first = n.firstNode()
		step = func(next *TrieNode[E, V]) *TrieNode[E, V] { return next.nextNode(bound) }
	} else {
		first = n.lastNode()
		step = func(next *TrieNode[E, V]) *TrieNode[E, V] { return next.previousNode(bound) }
	}
	if added {
		step = addedOnly(step)
		first = firstMatching(first, step)
	}
	it := newStepIterator(first, step, n.tracker)
	it.restepDetached = !added
	return it
}

func (n *TrieNode[E, V]) postOrderIterator(lowerFirst, added bool) *stepIterator[E, V] {
	if n == nil {
		return emptyIterator[E, V]()
	}
	bound := n
	step := func(next *TrieNode[E, V]) *TrieNode[E, V] { return next.nextPostOrderNode(bound, lowerFirst) }
	first := n.firstPostOrderNode(lowerFirst)
	if added {
		step = addedOnly(step)
		first = firstMatching(first, step)
	}
	return newStepIterator(first, step, n.tracker)
}

// Iterator returns an iterator over the added nodes of the sub-tree in
// natural order, or in reverse when forward is false.
func (n *TrieNode[E, V]) Iterator(forward bool) NodeIteratorRem[E, V] {
	return n.naturalIterator(forward, true)
}

// AllNodeIterator is like Iterator but also returns non-added nodes.
func (n *TrieNode[E, V]) AllNodeIterator(forward bool) NodeIteratorRem[E, V] {
	return n.naturalIterator(forward, false)
}

// KeyIterator returns an iterator over the added keys of the sub-tree in
// natural order, or in reverse when forward is false.
func (n *TrieNode[E, V]) KeyIterator(forward bool) KeyIterator[E] {
	return keyIterator[E, V]{n.Iterator(forward)}
}

// ContainingFirstIterator returns an iterator over the added nodes of the
// sub-tree in pre-order, containing blocks before the blocks they contain.
// With forwardSubNodeOrder the lower sub-node is visited before the upper.
func (n *TrieNode[E, V]) ContainingFirstIterator(forwardSubNodeOrder bool) CachingNodeIterator[E, V] {
	return newPreOrderIterator(n, forwardSubNodeOrder, true)
}

// ContainingFirstAllNodeIterator is like ContainingFirstIterator but also
// returns non-added nodes.
func (n *TrieNode[E, V]) ContainingFirstAllNodeIterator(forwardSubNodeOrder bool) CachingNodeIterator[E, V] {
	return newPreOrderIterator(n, forwardSubNodeOrder, false)
}

// ContainedFirstIterator returns an iterator over the added nodes of the
// sub-tree in post-order, contained blocks before the blocks containing them.
func (n *TrieNode[E, V]) ContainedFirstIterator(forwardSubNodeOrder bool) NodeIteratorRem[E, V] {
	return n.postOrderIterator(forwardSubNodeOrder, true)
}

// ContainedFirstAllNodeIterator is like ContainedFirstIterator but also
// returns non-added nodes. Removal is not offered, since removing a node
// may detach the junction that follows it.
func (n *TrieNode[E, V]) ContainedFirstAllNodeIterator(forwardSubNodeOrder bool) NodeIterator[E, V] {
	return readOnlyIterator[E, V]{n.postOrderIterator(forwardSubNodeOrder, false)}
}

type readOnlyIterator[E Key[E], V any] struct {
	it NodeIterator[E, V]
}

func (r readOnlyIterator[E, V]) HasNext() bool         { return r.it.HasNext() }
func (r readOnlyIterator[E, V]) Next() *TrieNode[E, V] { return r.it.Next() }

type keyIterator[E Key[E], V any] struct {
	it NodeIteratorRem[E, V]
}

func (k keyIterator[E, V]) HasNext() bool { return k.it.HasNext() }
func (k keyIterator[E, V]) Next() E       { return k.it.Next().Key() }
func (k keyIterator[E, V]) Remove() E     { return k.it.Remove().Key() }

// cachedNode is a pending node of a stack or queue based iteration.
type cachedNode[E Key[E], V any] struct {
	node   *TrieNode[E, V]
	cached any
}

// preOrderIterator keeps the sub-trees still to visit on a stack. The
// sub-nodes of the last returned node are pushed on the following call, so
// that values can be cached with them in between.
type preOrderIterator[E Key[E], V any] struct {
	lowerFirst, added bool

	stack []cachedNode[E, V]

	// node whose sub-nodes are still to be pushed
	pending                *TrieNode[E, V]
	lowerCache, upperCache any

	current       *TrieNode[E, V]
	currentCached any

	tracker *changeTracker
	version uint128.Uint128
}

func newPreOrderIterator[E Key[E], V any](start *TrieNode[E, V], lowerFirst, added bool) *preOrderIterator[E, V] {
	it := &preOrderIterator[E, V]{lowerFirst: lowerFirst, added: added}
	if start == nil {
		return it
	}
	it.tracker = start.tracker
	it.version = start.tracker.current()
	if !added || start.size > 0 {
		it.stack = append(it.stack, cachedNode[E, V]{node: start})
	}
	return it
}

func (it *preOrderIterator[E, V]) push(node *TrieNode[E, V], lowerCache, upperCache any) {
	// the first visited sub-node goes last
	if it.lowerFirst {
		if node.upper != nil {
			it.stack = append(it.stack, cachedNode[E, V]{node.upper, upperCache})
		}
		if node.lower != nil {
			it.stack = append(it.stack, cachedNode[E, V]{node.lower, lowerCache})
		}
	} else {
		if node.lower != nil {
			it.stack = append(it.stack, cachedNode[E, V]{node.lower, lowerCache})
		}
		if node.upper != nil {
			it.stack = append(it.stack, cachedNode[E, V]{node.upper, upperCache})
		}
	}
}

func (it *preOrderIterator[E, V]) HasNext() bool {
	it.tracker.checkUnchanged(it.version)
	// any sub-tree below the root holds an added node
	return len(it.stack) > 0 || (it.pending != nil && (it.pending.lower != nil || it.pending.upper != nil))
}

func (it *preOrderIterator[E, V]) Next() *TrieNode[E, V] {
	it.tracker.checkUnchanged(it.version)
	if it.pending != nil {
		it.push(it.pending, it.lowerCache, it.upperCache)
		it.pending, it.lowerCache, it.upperCache = nil, nil, nil
	}
	for len(it.stack) > 0 {
		last := len(it.stack) - 1
		next := it.stack[last]
		it.stack = it.stack[:last]
		if it.added && !next.node.added {
			it.push(next.node, next.cached, next.cached)
			continue
		}
		it.current, it.currentCached = next.node, next.cached
		it.pending = next.node
		return next.node
	}
	it.current, it.currentCached = nil, nil
	return nil
}

func (it *preOrderIterator[E, V]) Remove() *TrieNode[E, V] {
	if it.current == nil {
		return nil
	}
	it.tracker.checkUnchanged(it.version)
	removed := it.current
	it.current = nil
	removed.Remove()
	it.version = it.tracker.current()
	return removed
}

func (it *preOrderIterator[E, V]) GetCached() any {
	return it.currentCached
}

func (it *preOrderIterator[E, V]) CacheWithLowerSubNode(value any) bool {
	if it.pending == nil || it.pending.lower == nil {
		return false
	}
	it.lowerCache = value
	return true
}

func (it *preOrderIterator[E, V]) CacheWithUpperSubNode(value any) bool {
	if it.pending == nil || it.pending.upper == nil {
		return false
	}
	it.upperCache = value
	return true
}

// nodeSeq adapts a node iterator to a range-over-func sequence.
func nodeSeq[E Key[E], V any](iterator func() NodeIterator[E, V]) iter.Seq[*TrieNode[E, V]] {
	return func(yield func(*TrieNode[E, V]) bool) {
		it := iterator()
		for next := it.Next(); next != nil; next = it.Next() {
			if !yield(next) {
				return
			}
		}
	}
}

// All returns the added nodes of the sub-tree in natural order.
func (n *TrieNode[E, V]) All() iter.Seq[*TrieNode[E, V]] {
	return nodeSeq(func() NodeIterator[E, V] { return n.Iterator(true) })
}

// Backward returns the added nodes of the sub-tree in reverse natural order.
func (n *TrieNode[E, V]) Backward() iter.Seq[*TrieNode[E, V]] {
	return nodeSeq(func() NodeIterator[E, V] { return n.Iterator(false) })
}

// Keys returns the added keys of the sub-tree in natural order.
func (n *TrieNode[E, V]) Keys() iter.Seq[E] {
	return func(yield func(E) bool) {
		for node := range n.All() {
			if !yield(node.key) {
				return
			}
		}
	}
}
