// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"context"
	"iter"
)

// EmptyValue is the value type of tries that map nothing.
type EmptyValue = struct{}

// trie holds the root and the bit matching engine shared by Trie and
// AssociativeTrie. The root is the zero length prefix block of the address
// family of the first key, created on first use and never removed.
type trie[E Key[E], V any] struct {
	root     *TrieNode[E, V]
	strategy keyStrategy[E]
}

// checkKey normalizes the key and panics with a *KeyError if it is not a
// single address or prefix block of the trie's address family.
func (t *trie[E, V]) checkKey(key E) E {
	if key.BitCount() <= 0 {
		panic(newKeyError(key, ErrInvalidKey))
	}
	key = normalizeKey(key)
	if root := t.root; root != nil {
		if key.BitCount() != root.key.BitCount() || key.SegmentCount() != root.key.SegmentCount() {
			panic(newKeyError(key, ErrFamilyMismatch))
		}
	}
	return key
}

func (t *trie[E, V]) ensureRoot(key E) *TrieNode[E, V] {
	if t.root == nil {
		t.root = newNode[E, V](key.ToPrefixBlockLen(0), &changeTracker{})
		t.strategy = newKeyStrategy(key)
	}
	return t.root
}

func (t *trie[E, V]) newResult(key E, op operation) *opResult[E, V] {
	return &opResult[E, V]{key: key, op: op, strategy: t.strategy}
}

// query runs a read only operation, returning nil for an empty trie.
func (t *trie[E, V]) query(key E, op operation) *opResult[E, V] {
	key = t.checkKey(key)
	if t.root == nil {
		return nil
	}
	result := t.newResult(key, op)
	t.root.matchBits(result)
	return result
}

// mutate runs an operation that may create the root.
func (t *trie[E, V]) mutate(key E, op operation, prepare func(*opResult[E, V])) *opResult[E, V] {
	key = t.checkKey(key)
	t.ensureRoot(key)
	result := t.newResult(key, op)
	if prepare != nil {
		prepare(result)
	}
	t.root.matchBits(result)
	return result
}

func (t *trie[E, V]) tracker() *changeTracker {
	if t.root == nil {
		return nil
	}
	return t.root.tracker
}

// Root returns the root node, nil until the first key is added.
func (t *trie[E, V]) Root() *TrieNode[E, V] {
	return t.root
}

// Size returns the number of added keys in constant time.
func (t *trie[E, V]) Size() int {
	return t.root.Size()
}

// NodeSize returns the number of nodes including junctions, walking the trie.
func (t *trie[E, V]) NodeSize() int {
	return t.root.NodeSize()
}

func (t *trie[E, V]) IsEmpty() bool {
	return t.Size() == 0
}

// Clear removes every key. The root stays and keeps the address family.
func (t *trie[E, V]) Clear() {
	t.root.Clear()
}

// Add adds the key, returning false if it was already added.
func (t *trie[E, V]) Add(key E) bool {
	return !t.mutate(key, insert, nil).exists
}

// AddNode adds the key and returns its node, whether new or already added.
func (t *trie[E, V]) AddNode(key E) *TrieNode[E, V] {
	result := t.mutate(key, insert, nil)
	if result.inserted != nil {
		return result.inserted
	}
	return result.existingNode
}

// AddTrie adds every added key of the sub-tree rooted at node, returning the
// node in this trie matching node's key, which exists afterwards even if not
// added. Values are not copied.
func (t *trie[E, V]) AddTrie(node *TrieNode[E, V]) *TrieNode[E, V] {
	return t.addTrie(node, false)
}

func (t *trie[E, V]) addTrie(added *TrieNode[E, V], withValues bool) *TrieNode[E, V] {
	if added == nil {
		return nil
	}
	t.ensureRoot(t.checkKey(added.key))
	if added.tracker == t.root.tracker {
		added = added.cloneTree(&changeTracker{})
	}
	iterator := added.ContainingFirstAllNodeIterator(true)
	toAdd := iterator.Next()
	result := t.newResult(toAdd.key, insert)
	result.overwriteValue = withValues
	if withValues {
		result.newValue = toAdd.value
	}
	firstAdded := toAdd.added
	var firstNode *TrieNode[E, V]
	if firstAdded {
		firstNode = t.addFrom(result, t.root)
	} else {
		firstNode = t.root
	}
	lastAddedNode := firstNode
	for iterator.HasNext() {
		iterator.CacheWithLowerSubNode(lastAddedNode)
		iterator.CacheWithUpperSubNode(lastAddedNode)
		toAdd = iterator.Next()
		cachedNode := iterator.GetCached().(*TrieNode[E, V])
		if !toAdd.added {
			lastAddedNode = cachedNode
			continue
		}
		result = t.newResult(toAdd.key, insert)
		result.overwriteValue = withValues
		if withValues {
			result.newValue = toAdd.value
		}
		lastAddedNode = t.addFrom(result, cachedNode)
	}
	if !firstAdded {
		firstNode = t.GetNode(added.key)
	}
	return firstNode
}

// addFrom inserts starting at a node already known to contain the key.
func (t *trie[E, V]) addFrom(result *opResult[E, V], from *TrieNode[E, V]) *TrieNode[E, V] {
	from.matchBitsFromIndex(keyPrefixLen(from.key), result)
	if result.inserted != nil {
		return result.inserted
	}
	return result.existingNode
}

// Remove removes the key, returning whether it was added. A node with two
// sub-nodes stays in place as a junction.
func (t *trie[E, V]) Remove(key E) bool {
	key = t.checkKey(key)
	if t.root == nil {
		return false
	}
	result := t.newResult(key, insertedDelete)
	t.root.matchBits(result)
	return result.deleted != nil
}

// RemoveElementsContainedBy removes every node whose key is contained by the
// given key, returning the removed sub-tree or nil if nothing matched.
// Removal is by whole nodes: an added block that contains the key is kept.
func (t *trie[E, V]) RemoveElementsContainedBy(key E) *TrieNode[E, V] {
	key = t.checkKey(key)
	if t.root == nil {
		return nil
	}
	result := t.newResult(key, subtreeDelete)
	t.root.matchBits(result)
	return result.deleted
}

// ElementsContainedBy returns the root of the sub-tree holding every key
// contained by the given key, or nil. The node may be a junction.
func (t *trie[E, V]) ElementsContainedBy(key E) *TrieNode[E, V] {
	if result := t.query(key, containedBy); result != nil {
		return result.containedBy
	}
	return nil
}

// ElementsContaining returns the added nodes whose keys contain the given
// key, from the largest block down to the most specific.
func (t *trie[E, V]) ElementsContaining(key E) *Path[E, V] {
	var nodes []*TrieNode[E, V]
	if result := t.query(key, allContaining); result != nil {
		nodes = result.containingPath
	}
	return newPath(nodes)
}

// ElementContains reports whether some added key contains the given key.
func (t *trie[E, V]) ElementContains(key E) bool {
	return t.LongestPrefixMatchNode(key) != nil
}

// LongestPrefixMatch returns the most specific added key containing key.
func (t *trie[E, V]) LongestPrefixMatch(key E) (E, bool) {
	node := t.LongestPrefixMatchNode(key)
	return node.Key(), node != nil
}

func (t *trie[E, V]) LongestPrefixMatchNode(key E) *TrieNode[E, V] {
	if result := t.query(key, containing); result != nil {
		return result.smallestContaining
	}
	return nil
}

// ShortestPrefixMatch returns the least specific added key containing key.
func (t *trie[E, V]) ShortestPrefixMatch(key E) (E, bool) {
	node := t.ShortestPrefixMatchNode(key)
	return node.Key(), node != nil
}

func (t *trie[E, V]) ShortestPrefixMatchNode(key E) *TrieNode[E, V] {
	if result := t.query(key, containing); result != nil {
		return result.largestContaining
	}
	return nil
}

// Contains reports whether the key was added.
func (t *trie[E, V]) Contains(key E) bool {
	return t.GetAddedNode(key) != nil
}

// GetNode returns the node with the key, added or not.
func (t *trie[E, V]) GetNode(key E) *TrieNode[E, V] {
	if result := t.query(key, lookup); result != nil {
		return result.existingNode
	}
	return nil
}

// GetAddedNode returns the added node with the key.
func (t *trie[E, V]) GetAddedNode(key E) *TrieNode[E, V] {
	if node := t.GetNode(key); node.IsAdded() {
		return node
	}
	return nil
}

func (t *trie[E, V]) FirstNode() *TrieNode[E, V] {
	return t.root.FirstNode()
}

func (t *trie[E, V]) LastNode() *TrieNode[E, V] {
	return t.root.LastNode()
}

func (t *trie[E, V]) FirstAddedNode() *TrieNode[E, V] {
	return t.root.FirstAddedNode()
}

func (t *trie[E, V]) LastAddedNode() *TrieNode[E, V] {
	return t.root.LastAddedNode()
}

func (t *trie[E, V]) nearNode(key E, floor, exclusive bool) *TrieNode[E, V] {
	key = t.checkKey(key)
	if t.root == nil {
		return nil
	}
	result := t.newResult(key, near)
	result.nearestFloor = floor
	result.nearExclusive = exclusive
	t.root.matchBits(result)
	return result.nearestNode
}

// FloorAddedNode returns the added node with the greatest key not above key.
func (t *trie[E, V]) FloorAddedNode(key E) *TrieNode[E, V] {
	return t.nearNode(key, true, false)
}

// LowerAddedNode returns the added node with the greatest key below key.
func (t *trie[E, V]) LowerAddedNode(key E) *TrieNode[E, V] {
	return t.nearNode(key, true, true)
}

// CeilingAddedNode returns the added node with the least key not below key.
func (t *trie[E, V]) CeilingAddedNode(key E) *TrieNode[E, V] {
	return t.nearNode(key, false, false)
}

// HigherAddedNode returns the added node with the least key above key.
func (t *trie[E, V]) HigherAddedNode(key E) *TrieNode[E, V] {
	return t.nearNode(key, false, true)
}

func (t *trie[E, V]) Floor(key E) (E, bool) {
	node := t.FloorAddedNode(key)
	return node.Key(), node != nil
}

func (t *trie[E, V]) Lower(key E) (E, bool) {
	node := t.LowerAddedNode(key)
	return node.Key(), node != nil
}

func (t *trie[E, V]) Ceiling(key E) (E, bool) {
	node := t.CeilingAddedNode(key)
	return node.Key(), node != nil
}

func (t *trie[E, V]) Higher(key E) (E, bool) {
	node := t.HigherAddedNode(key)
	return node.Key(), node != nil
}

// Iterator returns the added keys in natural order.
func (t *trie[E, V]) Iterator() KeyIterator[E] {
	return t.root.KeyIterator(true)
}

// DescendingIterator returns the added keys in reverse natural order.
func (t *trie[E, V]) DescendingIterator() KeyIterator[E] {
	return t.root.KeyIterator(false)
}

func (t *trie[E, V]) NodeIterator(forward bool) NodeIteratorRem[E, V] {
	return t.root.Iterator(forward)
}

func (t *trie[E, V]) AllNodeIterator(forward bool) NodeIteratorRem[E, V] {
	return t.root.AllNodeIterator(forward)
}

func (t *trie[E, V]) ContainingFirstIterator(forwardSubNodeOrder bool) CachingNodeIterator[E, V] {
	return t.root.ContainingFirstIterator(forwardSubNodeOrder)
}

func (t *trie[E, V]) ContainingFirstAllNodeIterator(forwardSubNodeOrder bool) CachingNodeIterator[E, V] {
	return t.root.ContainingFirstAllNodeIterator(forwardSubNodeOrder)
}

func (t *trie[E, V]) ContainedFirstIterator(forwardSubNodeOrder bool) NodeIteratorRem[E, V] {
	return t.root.ContainedFirstIterator(forwardSubNodeOrder)
}

func (t *trie[E, V]) ContainedFirstAllNodeIterator(forwardSubNodeOrder bool) NodeIterator[E, V] {
	return t.root.ContainedFirstAllNodeIterator(forwardSubNodeOrder)
}

func (t *trie[E, V]) BlockSizeNodeIterator(lowerSubNodeFirst bool) NodeIteratorRem[E, V] {
	return t.root.BlockSizeNodeIterator(lowerSubNodeFirst)
}

func (t *trie[E, V]) BlockSizeAllNodeIterator(lowerSubNodeFirst bool) NodeIteratorRem[E, V] {
	return t.root.BlockSizeAllNodeIterator(lowerSubNodeFirst)
}

func (t *trie[E, V]) BlockSizeCachingAllNodeIterator() CachingNodeIterator[E, V] {
	return t.root.BlockSizeCachingAllNodeIterator()
}

// Spliterator returns a splittable traversal of the added nodes.
func (t *trie[E, V]) Spliterator(forward bool) *Spliterator[E, V] {
	return t.root.Spliterator(forward)
}

// All returns the added nodes in natural order.
func (t *trie[E, V]) All() iter.Seq[*TrieNode[E, V]] {
	return t.root.All()
}

// Backward returns the added nodes in reverse natural order.
func (t *trie[E, V]) Backward() iter.Seq[*TrieNode[E, V]] {
	return t.root.Backward()
}

// Keys returns the added keys in natural order.
func (t *trie[E, V]) Keys() iter.Seq[E] {
	return t.root.Keys()
}

// ParallelForEach calls fn concurrently for the added nodes, see TrieNode.ParallelForEach.
func (t *trie[E, V]) ParallelForEach(ctx context.Context, fn func(context.Context, *TrieNode[E, V]) error) error {
	return t.root.ParallelForEach(ctx, fn)
}

func (t *trie[E, V]) clone() trie[E, V] {
	if t.root == nil {
		return trie[E, V]{}
	}
	return trie[E, V]{root: t.root.cloneTree(&changeTracker{}), strategy: t.strategy}
}

// TreeString renders the trie, one node per line.
func (t *trie[E, V]) TreeString(withNonAddedKeys, withSizes bool) string {
	return t.root.TreeString(withNonAddedKeys, withSizes)
}

func (t *trie[E, V]) String() string {
	return t.TreeString(true, false)
}

// Trie is a binary prefix trie of address keys, a set of single addresses
// and CIDR prefix blocks. The zero value is an empty trie ready to use; the
// address family is fixed by the first key.
//
// A Trie is not safe for concurrent use when one of the goroutines modifies it.
type Trie[E Key[E]] struct {
	trie[E, EmptyValue]
}

// Clone returns an independent copy of the trie.
func (t *Trie[E]) Clone() *Trie[E] {
	return &Trie[E]{t.clone()}
}

// Equal reports whether both tries hold the same keys.
func (t *Trie[E]) Equal(other *Trie[E]) bool {
	if other == nil {
		return t.IsEmpty()
	}
	return t.root.Equal(other.root)
}

// AddedNodesTreeString renders only the added nodes, each below the
// nearest added node containing it.
func (t *Trie[E]) AddedNodesTreeString() string {
	return addedNodesTreeString(t.root)
}

// AsSet returns an ordered set view backed by the trie.
func (t *Trie[E]) AsSet() *Set[E] {
	return newSet(&t.trie)
}

// TreesString renders several tries one after the other.
func TreesString[E Key[E]](withNonAddedKeys bool, tries ...*Trie[E]) string {
	roots := make([]*TrieNode[E, EmptyValue], 0, len(tries))
	for _, t := range tries {
		roots = append(roots, t.root)
	}
	return treesString(withNonAddedKeys, roots...)
}
