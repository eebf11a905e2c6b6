// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

// view orients a bounded trie. A descending view swaps every notion of
// before and after.
type view[E Key[E], V any] struct {
	bounded    *boundedTrie[E, V]
	descending bool
}

func newView[E Key[E], V any](t *trie[E, V]) view[E, V] {
	return view[E, V]{bounded: &boundedTrie[E, V]{trie: t}}
}

func (v view[E, V]) firstNode() *TrieNode[E, V] {
	if v.descending {
		return v.bounded.lastNode()
	}
	return v.bounded.firstNode()
}

func (v view[E, V]) lastNode() *TrieNode[E, V] {
	if v.descending {
		return v.bounded.firstNode()
	}
	return v.bounded.lastNode()
}

func (v view[E, V]) floorNode(key E) *TrieNode[E, V] {
	if v.descending {
		return v.bounded.ceilingNode(key)
	}
	return v.bounded.floorNode(key)
}

func (v view[E, V]) ceilingNode(key E) *TrieNode[E, V] {
	if v.descending {
		return v.bounded.floorNode(key)
	}
	return v.bounded.ceilingNode(key)
}

func (v view[E, V]) lowerNode(key E) *TrieNode[E, V] {
	if v.descending {
		return v.bounded.higherNode(key)
	}
	return v.bounded.lowerNode(key)
}

func (v view[E, V]) higherNode(key E) *TrieNode[E, V] {
	if v.descending {
		return v.bounded.lowerNode(key)
	}
	return v.bounded.higherNode(key)
}

// pollFirstNode removes the first node, returning a detached copy of it.
func (v view[E, V]) pollFirstNode() *TrieNode[E, V] {
	return v.poll(v.firstNode())
}

func (v view[E, V]) pollLastNode() *TrieNode[E, V] {
	return v.poll(v.lastNode())
}

func (v view[E, V]) poll(node *TrieNode[E, V]) *TrieNode[E, V] {
	if node == nil {
		return nil
	}
	return v.bounded.remove(node.key)
}

func (v view[E, V]) iterator() *stepIterator[E, V] {
	return v.bounded.iterator(!v.descending)
}

func (v view[E, V]) reversed() view[E, V] {
	return view[E, V]{bounded: v.bounded, descending: !v.descending}
}

// headView keeps the keys before to, in the view's own order.
func (v view[E, V]) headView(to E, inclusive bool) (view[E, V], error) {
	var zero E
	if v.descending {
		return v.restrict(to, true, inclusive, zero, false, false)
	}
	return v.restrict(zero, false, false, to, true, inclusive)
}

// tailView keeps the keys from from on, in the view's own order.
func (v view[E, V]) tailView(from E, inclusive bool) (view[E, V], error) {
	var zero E
	if v.descending {
		return v.restrict(zero, false, false, from, true, inclusive)
	}
	return v.restrict(from, true, inclusive, zero, false, false)
}

func (v view[E, V]) subView(from E, fromInclusive bool, to E, toInclusive bool) (view[E, V], error) {
	if v.descending {
		return v.restrict(to, true, toInclusive, from, true, fromInclusive)
	}
	return v.restrict(from, true, fromInclusive, to, true, toInclusive)
}

func (v view[E, V]) restrict(
	lower E, hasLower, lowerInclusive bool,
	upper E, hasUpper, upperInclusive bool,
) (view[E, V], error) {
	bounded, err := v.bounded.restrict(lower, hasLower, lowerInclusive, upper, hasUpper, upperInclusive)
	if err != nil {
		return view[E, V]{}, err
	}
	return view[E, V]{bounded: bounded, descending: v.descending}, nil
}
