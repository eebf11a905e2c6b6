// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"sync/atomic"

	"lukechampine.com/uint128"
)

// boundedTrie exposes the keys of a backing trie that fall within bounds.
// Views made from one another share the backing trie, so changes through any
// of them show in all of them.
type boundedTrie[E Key[E], V any] struct {
	trie *trie[E, V]

	// nil when the view is not restricted
	bounds *Bounds[E]

	// smallest sub-tree holding every key in range, replaced as a whole so
	// readers of a view never see a node paired with another version
	subRoot atomic.Pointer[subRootEntry[E, V]]
}

type subRootEntry[E Key[E], V any] struct {
	node    *TrieNode[E, V]
	version uint128.Uint128
}

func (b *boundedTrie[E, V]) isBounded() bool {
	return !b.bounds.IsUnbounded()
}

func (b *boundedTrie[E, V]) inBounds(key E) bool {
	return b.bounds.IsInBounds(key)
}

func (b *boundedTrie[E, V]) comparator(key E) func(a, b E) int {
	if b.trie.strategy != nil {
		return b.trie.strategy.compare
	}
	return newKeyStrategy(key).compare
}

// getSubRoot descends from the root while the current node lies outside the
// bounds, since then one of its sub-trees lies entirely outside as well.
// Every key in range is in the returned sub-tree; nil means none can be.
func (b *boundedTrie[E, V]) getSubRoot() *TrieNode[E, V] {
	root := b.trie.root
	if root == nil || !b.isBounded() {
		return root
	}
	version := root.tracker.current()
	if cached := b.subRoot.Load(); cached != nil && cached.version.Equals(version) {
		return cached.node
	}
	node := root
	for node != nil {
		if b.bounds.isBelowLower(node.key) {
			node = node.upper
		} else if b.bounds.isAboveUpper(node.key) {
			node = node.lower
		} else {
			break
		}
	}
	b.subRoot.Store(&subRootEntry[E, V]{node: node, version: version})
	return node
}

// size counts the keys in range, walking the range.
func (b *boundedTrie[E, V]) size() int {
	if !b.isBounded() {
		return b.trie.Size()
	}
	subRoot := b.getSubRoot()
	count := 0
	for next := subRoot.FirstAddedNode(); next != nil; next = next.nextAddedNode(subRoot) {
		if b.bounds.isAboveUpper(next.key) {
			break
		}
		if !b.bounds.isBelowLower(next.key) {
			count++
		}
	}
	return count
}

func (b *boundedTrie[E, V]) isEmpty() bool {
	if !b.isBounded() {
		return b.trie.IsEmpty()
	}
	return b.firstNode() == nil
}

func (b *boundedTrie[E, V]) checkLower(node *TrieNode[E, V]) *TrieNode[E, V] {
	if node != nil && b.bounds.isBelowLower(node.key) {
		return nil
	}
	return node
}

func (b *boundedTrie[E, V]) checkUpper(node *TrieNode[E, V]) *TrieNode[E, V] {
	if node != nil && b.bounds.isAboveUpper(node.key) {
		return nil
	}
	return node
}

func (b *boundedTrie[E, V]) firstNode() *TrieNode[E, V] {
	if !b.isBounded() {
		return b.trie.FirstAddedNode()
	}
	subRoot := b.getSubRoot()
	if subRoot == nil {
		return nil
	}
	var node *TrieNode[E, V]
	if lower, ok := b.bounds.LowerBound(); !ok {
		node = subRoot.FirstAddedNode()
	} else if b.bounds.IsLowerInclusive() {
		node = b.trie.CeilingAddedNode(lower)
	} else {
		node = b.trie.HigherAddedNode(lower)
	}
	return b.checkUpper(node)
}

func (b *boundedTrie[E, V]) lastNode() *TrieNode[E, V] {
	if !b.isBounded() {
		return b.trie.LastAddedNode()
	}
	subRoot := b.getSubRoot()
	if subRoot == nil {
		return nil
	}
	var node *TrieNode[E, V]
	if upper, ok := b.bounds.UpperBound(); !ok {
		node = subRoot.LastAddedNode()
	} else if b.bounds.IsUpperInclusive() {
		node = b.trie.FloorAddedNode(upper)
	} else {
		node = b.trie.LowerAddedNode(upper)
	}
	return b.checkLower(node)
}

func (b *boundedTrie[E, V]) floorNode(key E) *TrieNode[E, V] {
	key = b.trie.checkKey(key)
	if b.bounds.isAboveUpper(key) {
		return b.lastNode()
	}
	return b.checkLower(b.trie.FloorAddedNode(key))
}

func (b *boundedTrie[E, V]) lowerNode(key E) *TrieNode[E, V] {
	key = b.trie.checkKey(key)
	if b.bounds.isAboveUpper(key) {
		return b.lastNode()
	}
	return b.checkLower(b.trie.LowerAddedNode(key))
}

func (b *boundedTrie[E, V]) ceilingNode(key E) *TrieNode[E, V] {
	key = b.trie.checkKey(key)
	if b.bounds.isBelowLower(key) {
		return b.firstNode()
	}
	return b.checkUpper(b.trie.CeilingAddedNode(key))
}

func (b *boundedTrie[E, V]) higherNode(key E) *TrieNode[E, V] {
	key = b.trie.checkKey(key)
	if b.bounds.isBelowLower(key) {
		return b.firstNode()
	}
	return b.checkUpper(b.trie.HigherAddedNode(key))
}

func (b *boundedTrie[E, V]) getNode(key E) *TrieNode[E, V] {
	key = b.trie.checkKey(key)
	if !b.inBounds(key) {
		return nil
	}
	return b.trie.GetAddedNode(key)
}

func (b *boundedTrie[E, V]) checkInBounds(key E) error {
	if !b.inBounds(key) {
		return outOfRange(key, "key outside %s", b.bounds)
	}
	return nil
}

// remove removes the key, doing nothing for keys out of range.
func (b *boundedTrie[E, V]) remove(key E) *TrieNode[E, V] {
	node := b.getNode(key)
	if node == nil {
		return nil
	}
	removed := newAddedNode(node.key, node.value, nil)
	node.Remove()
	return removed
}

func (b *boundedTrie[E, V]) clear() {
	if !b.isBounded() {
		b.trie.Clear()
		return
	}
	it := b.iterator(true)
	for it.Next() != nil {
		it.Remove()
	}
}

// iterator walks the added nodes in range in natural order, or in reverse.
func (b *boundedTrie[E, V]) iterator(forward bool) *stepIterator[E, V] {
	var it *stepIterator[E, V]
	if forward {
		it = newStepIterator(b.firstNode(), func(n *TrieNode[E, V]) *TrieNode[E, V] {
			return n.nextAddedNode(nil)
		}, b.trie.tracker())
	} else {
		it = newStepIterator(b.lastNode(), func(n *TrieNode[E, V]) *TrieNode[E, V] {
			return n.previousAddedNode(nil)
		}, b.trie.tracker())
	}
	if b.isBounded() {
		it.limit = func(n *TrieNode[E, V]) bool { return b.inBounds(n.key) }
	}
	return it
}

// restrict returns a view of the intersection of this view's range with the
// given ends.
func (b *boundedTrie[E, V]) restrict(
	lower E, hasLower, lowerInclusive bool,
	upper E, hasUpper, upperInclusive bool,
) (*boundedTrie[E, V], error) {
	var compare func(a, b E) int
	if hasLower {
		lower = b.trie.checkKey(lower)
		compare = b.comparator(lower)
	}
	if hasUpper {
		upper = b.trie.checkKey(upper)
		compare = b.comparator(upper)
	}
	if compare == nil {
		return b, nil
	}
	bounds, err := b.bounds.restrict(compare, lower, hasLower, lowerInclusive, upper, hasUpper, upperInclusive)
	if err != nil {
		return nil, err
	}
	return &boundedTrie[E, V]{trie: b.trie, bounds: bounds}, nil
}

// clone copies the keys in range into a new trie. Junctions left with fewer
// than two sub-nodes are dropped and sizes recomputed.
func (b *boundedTrie[E, V]) clone() trie[E, V] {
	if !b.isBounded() {
		return b.trie.clone()
	}
	root := b.trie.root
	if root == nil {
		return trie[E, V]{}
	}
	return trie[E, V]{root: b.cloneInBounds(root, &changeTracker{}), strategy: b.trie.strategy}
}

func (b *boundedTrie[E, V]) cloneInBounds(n *TrieNode[E, V], tracker *changeTracker) *TrieNode[E, V] {
	if n == nil {
		return nil
	}
	lower := b.cloneInBounds(n.lower, tracker)
	upper := b.cloneInBounds(n.upper, tracker)
	added := n.added && b.inBounds(n.key)
	if !added && n.parent != nil {
		if lower == nil {
			return upper
		} else if upper == nil {
			return lower
		}
	}
	clone := &TrieNode[E, V]{key: n.key, added: added, tracker: tracker}
	if added {
		clone.value = n.value
		clone.size = 1
	}
	if lower != nil {
		clone.lower, lower.parent = lower, clone
		clone.size += lower.size
	}
	if upper != nil {
		clone.upper, upper.parent = upper, clone
		clone.size += upper.size
	}
	return clone
}
