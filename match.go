// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

type matchKind int

const (
	// every bit of both keys matched and the prefix lengths are equal
	bitsMatch matchKind = iota

	// the node's prefix matched and the key is more specific
	bitsMatchPartially

	// the keys differ at the returned bit index, or the key is less
	// specific than the node and contains it
	bitsDoNotMatch
)

type operation int

const (
	// add the key, creating junctions as needed
	insert operation = iota

	// insert, update or remove the node according to a remapper
	remap

	// find the node with the key, added or not
	lookup

	// floor, ceiling, lower or higher
	near

	// the most and least specific added nodes containing the key
	containing

	// every added node containing the key
	allContaining

	// remove the exactly matching added node
	insertedDelete

	// remove every node contained by the key
	subtreeDelete

	// find the sub-tree of nodes contained by the key
	containedBy
)

type remapAction int

const (
	doNothing remapAction = iota
	removeNode
	remapValue
)

// opResult carries the input and the outputs of one walk down the trie.
type opResult[E Key[E], V any] struct {
	key      E
	op       operation
	strategy keyStrategy[E]

	// insert and remap
	newValue       V
	overwriteValue bool
	remapper       func(existing V, found bool) (V, remapAction)
	inserted       *TrieNode[E, V]
	exists         bool
	existingValue  V

	// node that matched the key exactly, added or not
	existingNode *TrieNode[E, V]

	// containing
	smallestContaining, largestContaining *TrieNode[E, V]

	// allContaining, most specific last
	containingPath []*TrieNode[E, V]

	// containedBy and subtreeDelete
	containedBy *TrieNode[E, V]

	// insertedDelete, subtreeDelete and remap
	deleted *TrieNode[E, V]

	// near
	nearestFloor  bool
	nearExclusive bool
	nearestNode   *TrieNode[E, V]
}

// matchBits walks down from the node, dispatching each bit comparison
// outcome to the handler of the current operation.
func (n *TrieNode[E, V]) matchBits(result *opResult[E, V]) {
	n.matchBitsFromIndex(0, result)
}

func (n *TrieNode[E, V]) matchBitsFromIndex(bitIndex int, result *opResult[E, V]) {
	for node := n; node != nil; {
		kind, index := result.strategy.match(node.key, result.key, bitIndex)
		switch kind {
		case bitsMatch:
			node.handleMatch(result)
			return
		case bitsMatchPartially:
			node = node.handleContains(result, index)
			bitIndex = index
		default:
			node.handleSplitNode(result, index)
			return
		}
	}
}

func (n *TrieNode[E, V]) handleMatch(result *opResult[E, V]) {
	result.existingNode = n
	switch result.op {
	case insert:
		if n.added {
			result.exists = true
			result.existingValue = n.value
			if result.overwriteValue {
				n.value = result.newValue
			}
			return
		}
		n.setAdded(result.newValue)
		result.inserted = n
	case remap:
		n.remapExisting(result)
	case near:
		n.handleNearMatch(result)
	case containing:
		n.recordContaining(result)
	case allContaining:
		if n.added {
			result.containingPath = append(result.containingPath, n)
		}
	case insertedDelete:
		if n.added {
			result.existingValue = n.value
			n.remove()
			result.deleted = n
		}
	case subtreeDelete:
		n.deleteSubtree(result)
	case containedBy:
		result.containedBy = n
	}
}

// handleContains is called when the node's prefix contains the key. It
// returns the sub-node to continue with, or nil once the operation is done.
func (n *TrieNode[E, V]) handleContains(result *opResult[E, V], bitIndex int) *TrieNode[E, V] {
	switch result.op {
	case containing:
		n.recordContaining(result)
	case allContaining:
		if n.added {
			result.containingPath = append(result.containingPath, n)
		}
	}
	upper := result.key.IsOneBit(bitIndex)
	if next := n.child(upper); next != nil {
		return next
	}
	switch result.op {
	case insert:
		n.insertChild(result, upper, result.newValue)
	case remap:
		if value, action := n.callRemapper(result); action == remapValue {
			n.insertChild(result, upper, value)
		}
	case near:
		n.handleNearMissingChild(result, upper)
	}
	return nil
}

// handleSplitNode is called when the key and the node differ at bitIndex,
// or when bitIndex is the prefix length of a key that contains the node.
func (n *TrieNode[E, V]) handleSplitNode(result *opResult[E, V], bitIndex int) {
	keyContainsNode := bitIndex == keyPrefixLen(result.key)
	switch result.op {
	case insert:
		n.split(result, bitIndex, keyContainsNode, result.newValue)
	case remap:
		if value, action := n.callRemapper(result); action == remapValue {
			n.split(result, bitIndex, keyContainsNode, value)
		}
	case near:
		n.handleNearMismatch(result, bitIndex, keyContainsNode)
	case subtreeDelete:
		if keyContainsNode {
			n.deleteSubtree(result)
		}
	case containedBy:
		if keyContainsNode {
			result.containedBy = n
		}
	}
}

// deleteSubtree removes the sub-tree and hands it back as a detached tree.
// The root stays in place, so its contents are returned as a copy.
func (n *TrieNode[E, V]) deleteSubtree(result *opResult[E, V]) {
	result.containedBy = n
	if n.parent == nil {
		result.deleted = n.cloneTree(&changeTracker{})
		n.clear()
		return
	}
	n.clear()
	n.parent = nil
	result.deleted = n
}

func (n *TrieNode[E, V]) recordContaining(result *opResult[E, V]) {
	if !n.added {
		return
	}
	result.smallestContaining = n
	if result.largestContaining == nil {
		result.largestContaining = n
	}
}

func (n *TrieNode[E, V]) insertChild(result *opResult[E, V], upper bool, value V) {
	child := newAddedNode(result.key, value, n.tracker)
	n.setChild(upper, child)
	n.adjustSize(1)
	n.tracker.changed()
	result.inserted = child
}

// split inserts the key above the node, either as the node's new parent when
// the key contains it, or as a sibling under a new junction.
func (n *TrieNode[E, V]) split(result *opResult[E, V], bitIndex int, keyContainsNode bool, value V) {
	parent := n.parent
	inserted := newAddedNode(result.key, value, n.tracker)
	if keyContainsNode {
		n.replaceThis(inserted)
		inserted.setChild(n.key.IsOneBit(bitIndex), n)
		inserted.size += n.size
	} else {
		junction := newNode[E, V](n.key.ToPrefixBlockLen(bitIndex), n.tracker)
		n.replaceThis(junction)
		upper := result.key.IsOneBit(bitIndex)
		junction.setChild(upper, inserted)
		junction.setChild(!upper, n)
		junction.size = n.size + 1
	}
	parent.adjustSize(1)
	n.tracker.changed()
	result.inserted = inserted
}

// callRemapper runs the remapper for an absent key and checks that it did
// not change the trie when the outcome would modify it.
func (n *TrieNode[E, V]) callRemapper(result *opResult[E, V]) (V, remapAction) {
	var zero V
	version := n.tracker.current()
	value, action := result.remapper(zero, false)
	if action == remapValue {
		n.tracker.checkUnchanged(version)
	}
	return value, action
}

func (n *TrieNode[E, V]) remapExisting(result *opResult[E, V]) {
	version := n.tracker.current()
	value, action := result.remapper(n.value, n.added)
	switch action {
	case remapValue:
		n.tracker.checkUnchanged(version)
		if n.added {
			result.exists = true
			result.existingValue = n.value
			n.value = value
		} else {
			n.setAdded(value)
			result.inserted = n
		}
	case removeNode:
		if n.added {
			n.tracker.checkUnchanged(version)
			result.exists = true
			result.existingValue = n.value
			n.remove()
			result.deleted = n
		}
	}
}
