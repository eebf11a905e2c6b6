// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"github.com/google/btree"
	"lukechampine.com/uint128"
)

const blockSizeQueueDegree = 8

// blockSizeIterator visits the largest blocks first, keys with the same
// prefix length following natural order, or its reverse. Pending sub-trees
// wait in a btree used as a priority queue; the sub-nodes of the last
// returned node are queued on the following call.
type blockSizeIterator[E Key[E], V any] struct {
	added bool

	queue *btree.BTreeG[cachedNode[E, V]]

	pending                *TrieNode[E, V]
	lowerCache, upperCache any

	current       *TrieNode[E, V]
	currentCached any

	tracker *changeTracker
	version uint128.Uint128
}

func newBlockSizeIterator[E Key[E], V any](start *TrieNode[E, V], lowerSubNodeFirst, added bool) *blockSizeIterator[E, V] {
	it := &blockSizeIterator[E, V]{added: added}
	if start == nil {
		it.queue = btree.NewG[cachedNode[E, V]](blockSizeQueueDegree, func(a, b cachedNode[E, V]) bool { return false })
		return it
	}
	strategy := newKeyStrategy(start.key)
	it.queue = btree.NewG[cachedNode[E, V]](blockSizeQueueDegree, func(a, b cachedNode[E, V]) bool {
		aLen, bLen := keyPrefixLen(a.node.key), keyPrefixLen(b.node.key)
		if aLen != bLen {
			return aLen < bLen
		}
		cmp := strategy.compare(a.node.key, b.node.key)
		if lowerSubNodeFirst {
			return cmp < 0
		}
		return cmp > 0
	})
	it.tracker = start.tracker
	it.version = start.tracker.current()
	if !added || start.size > 0 {
		it.queue.ReplaceOrInsert(cachedNode[E, V]{node: start})
	}
	return it
}

func (it *blockSizeIterator[E, V]) push(node *TrieNode[E, V], lowerCache, upperCache any) {
	if node.lower != nil {
		it.queue.ReplaceOrInsert(cachedNode[E, V]{node.lower, lowerCache})
	}
	if node.upper != nil {
		it.queue.ReplaceOrInsert(cachedNode[E, V]{node.upper, upperCache})
	}
}

func (it *blockSizeIterator[E, V]) HasNext() bool {
	it.tracker.checkUnchanged(it.version)
	return it.queue.Len() > 0 || (it.pending != nil && (it.pending.lower != nil || it.pending.upper != nil))
}

func (it *blockSizeIterator[E, V]) Next() *TrieNode[E, V] {
	it.tracker.checkUnchanged(it.version)
	if it.pending != nil {
		it.push(it.pending, it.lowerCache, it.upperCache)
		it.pending, it.lowerCache, it.upperCache = nil, nil, nil
	}
	for {
		next, ok := it.queue.DeleteMin()
		if !ok {
			break
		}
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

func (it *blockSizeIterator[E, V]) Remove() *TrieNode[E, V] {
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

func (it *blockSizeIterator[E, V]) GetCached() any {
	return it.currentCached
}

func (it *blockSizeIterator[E, V]) CacheWithLowerSubNode(value any) bool {
	if it.pending == nil || it.pending.lower == nil {
		return false
	}
	it.lowerCache = value
	return true
}

func (it *blockSizeIterator[E, V]) CacheWithUpperSubNode(value any) bool {
	if it.pending == nil || it.pending.upper == nil {
		return false
	}
	it.upperCache = value
	return true
}

// BlockSizeNodeIterator returns an iterator over the added nodes of the
// sub-tree, largest blocks first. Blocks of the same size follow natural
// order when lowerSubNodeFirst is true and reverse order otherwise.
func (n *TrieNode[E, V]) BlockSizeNodeIterator(lowerSubNodeFirst bool) NodeIteratorRem[E, V] {
	return newBlockSizeIterator(n, lowerSubNodeFirst, true)
}

// BlockSizeAllNodeIterator is like BlockSizeNodeIterator but also returns
// non-added nodes.
func (n *TrieNode[E, V]) BlockSizeAllNodeIterator(lowerSubNodeFirst bool) NodeIteratorRem[E, V] {
	return newBlockSizeIterator(n, lowerSubNodeFirst, false)
}

// BlockSizeCachingAllNodeIterator is like BlockSizeAllNodeIterator, in
// natural order for blocks of the same size, and caches values with sub-nodes.
func (n *TrieNode[E, V]) BlockSizeCachingAllNodeIterator() CachingNodeIterator[E, V] {
	return newBlockSizeIterator(n, true, false)
}
