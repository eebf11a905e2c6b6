// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

// TrieNode is a node of a binary prefix trie.
//
// Nodes holding explicitly inserted keys are "added". The others are
// junctions that exist only because they have two sub-nodes, apart from the
// root which is kept even when it is empty.
//
// The lower sub-node holds keys whose bit following this node's prefix is 0,
// the upper sub-node those whose bit is 1. Links can be read but only the
// trie changes them.
type TrieNode[E Key[E], V any] struct {
	key   E
	value V

	parent, lower, upper *TrieNode[E, V]

	added bool

	// number of added nodes in the sub-tree, this one included
	size int

	tracker *changeTracker
}

func newNode[E Key[E], V any](key E, tracker *changeTracker) *TrieNode[E, V] {
	return &TrieNode[E, V]{key: key, tracker: tracker}
}

func newAddedNode[E Key[E], V any](key E, value V, tracker *changeTracker) *TrieNode[E, V] {
	return &TrieNode[E, V]{key: key, value: value, added: true, size: 1, tracker: tracker}
}

// Key returns the key of the node.
func (n *TrieNode[E, V]) Key() (key E) {
	if n != nil {
		key = n.key
	}
	return
}

// Value returns the value mapped to the node, the zero value for non-added nodes.
func (n *TrieNode[E, V]) Value() (value V) {
	if n != nil {
		value = n.value
	}
	return
}

// SetValue maps a value to an added node. It does nothing for non-added nodes.
func (n *TrieNode[E, V]) SetValue(value V) {
	if n != nil && n.added {
		n.value = value
	}
}

func (n *TrieNode[E, V]) Parent() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *TrieNode[E, V]) Lower() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.lower
}

func (n *TrieNode[E, V]) Upper() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.upper
}

// IsAdded reports whether the node holds an inserted key.
func (n *TrieNode[E, V]) IsAdded() bool {
	return n != nil && n.added
}

// IsRoot reports whether the node is the root of its trie.
func (n *TrieNode[E, V]) IsRoot() bool {
	return n != nil && n.parent == nil
}

// IsLeaf reports whether the node has no sub-nodes.
func (n *TrieNode[E, V]) IsLeaf() bool {
	return n != nil && n.lower == nil && n.upper == nil
}

// IsEmpty reports whether the sub-tree holds no added node.
func (n *TrieNode[E, V]) IsEmpty() bool {
	return n.Size() == 0
}

// Size returns the number of added nodes in the sub-tree rooted at this node.
// It runs in constant time.
func (n *TrieNode[E, V]) Size() int {
	if n == nil {
		return 0
	}
	return n.size
}

// NodeSize returns the number of nodes, added or not, in the sub-tree
// rooted at this node. It walks the whole sub-tree.
func (n *TrieNode[E, V]) NodeSize() int {
	if n == nil {
		return 0
	}
	count := 0
	for next := n.firstNode(); next != nil; next = next.nextNode(n) {
		count++
	}
	return count
}

// Remove removes the node's key from the trie. The node stays in place as a
// junction if it has two sub-nodes or is the root, otherwise it is detached.
func (n *TrieNode[E, V]) Remove() {
	if n.IsAdded() {
		n.remove()
	}
}

// Clear removes every added node from the sub-tree rooted at this node.
func (n *TrieNode[E, V]) Clear() {
	if n != nil {
		n.clear()
	}
}

func (n *TrieNode[E, V]) setAdded(value V) {
	n.added = true
	n.value = value
	n.adjustSize(1)
	n.tracker.changed()
}

func (n *TrieNode[E, V]) setNotAdded() {
	var zero V
	n.added = false
	n.value = zero
	n.adjustSize(-1)
}

// adjustSize applies delta to the node and all its ancestors.
func (n *TrieNode[E, V]) adjustSize(delta int) {
	for next := n; next != nil; next = next.parent {
		next.size += delta
	}
}

// replaceThis installs replacement in this node's slot of its parent.
// The node keeps its own links so that iterators positioned on it can still
// step away from it.
func (n *TrieNode[E, V]) replaceThis(replacement *TrieNode[E, V]) {
	parent := n.parent
	if parent == nil {
		panic("cannot replace the root of a trie")
	}
	switch n {
	case parent.lower:
		parent.lower = replacement
	case parent.upper:
		parent.upper = replacement
	default:
		panic("node is not linked to its parent")
	}
	if replacement != nil {
		replacement.parent = parent
	}
}

// isDetached reports whether the node was removed from its trie.
func (n *TrieNode[E, V]) isDetached() bool {
	p := n.parent
	return p != nil && p.lower != n && p.upper != n
}

func (n *TrieNode[E, V]) remove() {
	n.tracker.changed()
	if n.parent == nil || (n.lower != nil && n.upper != nil) {
		n.setNotAdded()
		return
	}
	parent := n.parent
	child := n.lower
	if child == nil {
		child = n.upper
	}
	n.replaceThis(child)
	parent.adjustSize(-1)
	var zero V
	n.added = false
	n.value = zero
	n.size--
	parent.pruneJunction()
}

// pruneJunction splices out a non-root junction left with fewer than two sub-nodes.
func (n *TrieNode[E, V]) pruneJunction() {
	if n.parent == nil || n.added {
		return
	}
	if n.lower != nil && n.upper != nil {
		return
	}
	child := n.lower
	if child == nil {
		child = n.upper
	}
	n.replaceThis(child)
}

func (n *TrieNode[E, V]) clear() {
	if n.size == 0 && n.lower == nil && n.upper == nil {
		return
	}
	n.tracker.changed()
	if n.parent == nil {
		var zero V
		n.lower, n.upper = nil, nil
		n.added = false
		n.value = zero
		n.size = 0
		return
	}
	parent := n.parent
	n.replaceThis(nil)
	parent.adjustSize(-n.size)
	parent.pruneJunction()
}

func (n *TrieNode[E, V]) child(upper bool) *TrieNode[E, V] {
	if upper {
		return n.upper
	}
	return n.lower
}

func (n *TrieNode[E, V]) setChild(upper bool, child *TrieNode[E, V]) {
	if upper {
		n.upper = child
	} else {
		n.lower = child
	}
	child.parent = n
}

// FirstNode returns the first node of the sub-tree in natural order, added or not.
func (n *TrieNode[E, V]) FirstNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.firstNode()
}

// LastNode returns the last node of the sub-tree in natural order, added or not.
func (n *TrieNode[E, V]) LastNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.lastNode()
}

// FirstAddedNode returns the first added node of the sub-tree in natural order.
func (n *TrieNode[E, V]) FirstAddedNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.firstAddedNode()
}

// LastAddedNode returns the last added node of the sub-tree in natural order.
func (n *TrieNode[E, V]) LastAddedNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.lastAddedNode()
}

// NextNode returns the node following this one in natural order across the whole trie.
func (n *TrieNode[E, V]) NextNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.nextNode(nil)
}

// PreviousNode returns the node preceding this one in natural order across the whole trie.
func (n *TrieNode[E, V]) PreviousNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.previousNode(nil)
}

// NextAddedNode returns the added node following this one in natural order.
func (n *TrieNode[E, V]) NextAddedNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.nextAddedNode(nil)
}

// PreviousAddedNode returns the added node preceding this one in natural order.
func (n *TrieNode[E, V]) PreviousAddedNode() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.previousAddedNode(nil)
}

// natural order is lower sub-tree, node, upper sub-tree

func (n *TrieNode[E, V]) firstNode() *TrieNode[E, V] {
	next := n
	for next.lower != nil {
		next = next.lower
	}
	return next
}

func (n *TrieNode[E, V]) lastNode() *TrieNode[E, V] {
	next := n
	for next.upper != nil {
		next = next.upper
	}
	return next
}

func (n *TrieNode[E, V]) firstAddedNode() *TrieNode[E, V] {
	first := n.firstNode()
	if first.added {
		return first
	}
	return first.nextAddedNode(n)
}

func (n *TrieNode[E, V]) lastAddedNode() *TrieNode[E, V] {
	last := n.lastNode()
	if last.added {
		return last
	}
	return last.previousAddedNode(n)
}

// reachedBound reports whether an upward walk from inside the sub-tree of
// bound must stop at next. It also holds for a node that replaced bound.
func reachedBound[E Key[E], V any](next, bound *TrieNode[E, V]) bool {
	return bound != nil && (next == bound || (bound.parent != nil && next.parent == bound.parent))
}

// nextNode returns the in-order successor, staying within the sub-tree of
// bound when bound is not nil.
func (n *TrieNode[E, V]) nextNode(bound *TrieNode[E, V]) *TrieNode[E, V] {
	if n.upper != nil {
		return n.upper.firstNode()
	}
	for next := n; ; {
		if reachedBound(next, bound) {
			return nil
		}
		parent := next.parent
		if parent == nil {
			return nil
		}
		if parent.lower == next {
			return parent
		}
		next = parent
	}
}

func (n *TrieNode[E, V]) previousNode(bound *TrieNode[E, V]) *TrieNode[E, V] {
	if n.lower != nil {
		return n.lower.lastNode()
	}
	for next := n; ; {
		if reachedBound(next, bound) {
			return nil
		}
		parent := next.parent
		if parent == nil {
			return nil
		}
		if parent.upper == next {
			return parent
		}
		next = parent
	}
}

func (n *TrieNode[E, V]) nextAddedNode(bound *TrieNode[E, V]) *TrieNode[E, V] {
	next := n.nextNode(bound)
	for next != nil && !next.added {
		next = next.nextNode(bound)
	}
	return next
}

func (n *TrieNode[E, V]) previousAddedNode(bound *TrieNode[E, V]) *TrieNode[E, V] {
	next := n.previousNode(bound)
	for next != nil && !next.added {
		next = next.previousNode(bound)
	}
	return next
}

// predecessorOfSubtree returns the greatest added node preceding every node
// of the sub-tree rooted at n.
func (n *TrieNode[E, V]) predecessorOfSubtree() *TrieNode[E, V] {
	for next, parent := n, n.parent; parent != nil; next, parent = parent, parent.parent {
		if parent.upper != next {
			continue
		}
		if parent.added {
			return parent
		}
		if parent.lower != nil {
			if last := parent.lower.lastAddedNode(); last != nil {
				return last
			}
		}
	}
	return nil
}

// successorOfSubtree returns the least added node following every node of
// the sub-tree rooted at n.
func (n *TrieNode[E, V]) successorOfSubtree() *TrieNode[E, V] {
	for next, parent := n, n.parent; parent != nil; next, parent = parent, parent.parent {
		if parent.lower != next {
			continue
		}
		if parent.added {
			return parent
		}
		if parent.upper != nil {
			if first := parent.upper.firstAddedNode(); first != nil {
				return first
			}
		}
	}
	return nil
}

// containing-first order is node, then the two sub-trees

func (n *TrieNode[E, V]) nextPreOrderNode(bound *TrieNode[E, V], lowerFirst bool) *TrieNode[E, V] {
	if first := n.child(!lowerFirst); first != nil {
		return first
	}
	if second := n.child(lowerFirst); second != nil {
		return second
	}
	for next := n; ; {
		if reachedBound(next, bound) {
			return nil
		}
		parent := next.parent
		if parent == nil {
			return nil
		}
		if parent.child(!lowerFirst) == next {
			if second := parent.child(lowerFirst); second != nil {
				return second
			}
		}
		next = parent
	}
}

// contained-first order is the two sub-trees, then the node

func (n *TrieNode[E, V]) firstPostOrderNode(lowerFirst bool) *TrieNode[E, V] {
	next := n
	for {
		if first := next.child(!lowerFirst); first != nil {
			next = first
		} else if second := next.child(lowerFirst); second != nil {
			next = second
		} else {
			return next
		}
	}
}

func (n *TrieNode[E, V]) nextPostOrderNode(bound *TrieNode[E, V], lowerFirst bool) *TrieNode[E, V] {
	if reachedBound(n, bound) {
		return nil
	}
	parent := n.parent
	if parent == nil {
		return nil
	}
	if parent.child(!lowerFirst) == n {
		if second := parent.child(lowerFirst); second != nil {
			return second.firstPostOrderNode(lowerFirst)
		}
	}
	return parent
}

// cloneTree copies the sub-tree into a new node graph sharing tracker.
func (n *TrieNode[E, V]) cloneTree(tracker *changeTracker) *TrieNode[E, V] {
	clone := &TrieNode[E, V]{key: n.key, value: n.value, added: n.added, size: n.size, tracker: tracker}
	if n.lower != nil {
		clone.lower = n.lower.cloneTree(tracker)
		clone.lower.parent = clone
	}
	if n.upper != nil {
		clone.upper = n.upper.cloneTree(tracker)
		clone.upper.parent = clone
	}
	return clone
}

// Clone copies the sub-tree rooted at this node into an independent trie
// structure with its own change tracking. The clone has no parent.
func (n *TrieNode[E, V]) Clone() *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	return n.cloneTree(&changeTracker{})
}

// Equal reports whether both sub-trees hold the same added keys.
func (n *TrieNode[E, V]) Equal(other *TrieNode[E, V]) bool {
	return n.equal(other, nil)
}

func (n *TrieNode[E, V]) equal(other *TrieNode[E, V], values func(a, b V) bool) bool {
	if n == nil || other == nil {
		return n.Size() == other.Size()
	}
	if n.size != other.size {
		return false
	}
	strategy := newKeyStrategy(n.key)
	next, otherNext := n.firstAddedNode(), other.firstAddedNode()
	for next != nil && otherNext != nil {
		if strategy.compare(next.key, otherNext.key) != 0 {
			return false
		}
		if values != nil && !values(next.value, otherNext.value) {
			return false
		}
		next, otherNext = next.nextAddedNode(n), otherNext.nextAddedNode(other)
	}
	return next == nil && otherNext == nil
}

func (n *TrieNode[E, V]) String() string {
	if n == nil {
		return nilString()
	}
	return nodeString[E, V](n)
}
