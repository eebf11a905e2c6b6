// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

// Natural order places a node's lower sub-tree before the node and its upper
// sub-tree after it. A key missing from the trie therefore sits either
// beside a missing sub-node or outside a whole sub-tree, and the nearest
// added node is found from there by climbing to the first ancestor reached
// from the opposite side.

// handleNearMatch handles a key equal to the node's key.
func (n *TrieNode[E, V]) handleNearMatch(result *opResult[E, V]) {
	if n.added && !result.nearExclusive {
		result.nearestNode = n
		return
	}
	if result.nearestFloor {
		result.nearestNode = n.lowerWithin()
	} else {
		result.nearestNode = n.higherWithin()
	}
}

// lowerWithin returns the greatest added node below n.
func (n *TrieNode[E, V]) lowerWithin() *TrieNode[E, V] {
	if n.lower != nil {
		if last := n.lower.lastAddedNode(); last != nil {
			return last
		}
	}
	return n.predecessorOfSubtree()
}

// higherWithin returns the least added node above n.
func (n *TrieNode[E, V]) higherWithin() *TrieNode[E, V] {
	if n.upper != nil {
		if first := n.upper.firstAddedNode(); first != nil {
			return first
		}
	}
	return n.successorOfSubtree()
}

// handleNearMissingChild handles a key inside the node's block whose
// sub-node on the key's side is missing.
func (n *TrieNode[E, V]) handleNearMissingChild(result *opResult[E, V], upper bool) {
	if upper {
		// lower sub-tree < node < key < everything after the sub-tree
		if result.nearestFloor {
			if n.added {
				result.nearestNode = n
			} else {
				result.nearestNode = n.lowerWithin()
			}
		} else {
			result.nearestNode = n.successorOfSubtree()
		}
		return
	}
	// everything before the sub-tree < key < node < upper sub-tree
	if result.nearestFloor {
		result.nearestNode = n.predecessorOfSubtree()
	} else if n.added {
		result.nearestNode = n
	} else {
		result.nearestNode = n.higherWithin()
	}
}

// handleNearMismatch handles a key that falls outside the sub-tree rooted at
// the node, either because they differ at bitIndex or because the key
// contains the node.
func (n *TrieNode[E, V]) handleNearMismatch(result *opResult[E, V], bitIndex int, keyContainsNode bool) {
	var subtreeAbove bool
	if keyContainsNode {
		// the sub-tree keys all share the node's bit following the key's prefix
		subtreeAbove = n.key.IsOneBit(bitIndex)
	} else {
		subtreeAbove = !result.key.IsOneBit(bitIndex)
	}
	if subtreeAbove {
		if result.nearestFloor {
			result.nearestNode = n.predecessorOfSubtree()
		} else {
			result.nearestNode = n.firstAddedNode()
			if result.nearestNode == nil {
				result.nearestNode = n.successorOfSubtree()
			}
		}
		return
	}
	if result.nearestFloor {
		result.nearestNode = n.lastAddedNode()
		if result.nearestNode == nil {
			result.nearestNode = n.predecessorOfSubtree()
		}
	} else {
		result.nearestNode = n.successorOfSubtree()
	}
}
