// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"iter"
	"strings"
)

// Set is an ordered set view of a Trie, possibly restricted to a range of
// keys and possibly in descending order. Changes to the trie show through the
// set and the other way around.
//
// Sizes of restricted sets are computed by walking the range.
type Set[E Key[E]] struct {
	view[E, EmptyValue]
}

func newSet[E Key[E]](t *trie[E, EmptyValue]) *Set[E] {
	return &Set[E]{newView(t)}
}

// Bounds returns the range of the set, nil when it is not restricted.
func (s *Set[E]) Bounds() *Bounds[E] {
	return s.bounded.bounds
}

// IsDescending reports whether the set runs in reverse natural order.
func (s *Set[E]) IsDescending() bool {
	return s.descending
}

func (s *Set[E]) Size() int {
	return s.bounded.size()
}

func (s *Set[E]) IsEmpty() bool {
	return s.bounded.isEmpty()
}

// Contains reports whether the key is in range and added.
func (s *Set[E]) Contains(key E) bool {
	return s.bounded.getNode(key) != nil
}

// Add adds the key, returning false if it was already there. Keys outside
// the range fail with ErrOutOfRange.
func (s *Set[E]) Add(key E) (bool, error) {
	key = s.bounded.trie.checkKey(key)
	if err := s.bounded.checkInBounds(key); err != nil {
		return false, err
	}
	return s.bounded.trie.Add(key), nil
}

// Remove removes the key, returning whether it was in the set.
func (s *Set[E]) Remove(key E) bool {
	return s.bounded.remove(key) != nil
}

// Clear removes every key in range from the trie.
func (s *Set[E]) Clear() {
	s.bounded.clear()
}

func (s *Set[E]) First() (E, bool) {
	return keyOf(s.firstNode())
}

func (s *Set[E]) Last() (E, bool) {
	return keyOf(s.lastNode())
}

// Floor returns the greatest key not after the given one, in set order.
func (s *Set[E]) Floor(key E) (E, bool) {
	return keyOf(s.floorNode(key))
}

// Lower returns the greatest key before the given one, in set order.
func (s *Set[E]) Lower(key E) (E, bool) {
	return keyOf(s.lowerNode(key))
}

// Ceiling returns the least key not before the given one, in set order.
func (s *Set[E]) Ceiling(key E) (E, bool) {
	return keyOf(s.ceilingNode(key))
}

// Higher returns the least key after the given one, in set order.
func (s *Set[E]) Higher(key E) (E, bool) {
	return keyOf(s.higherNode(key))
}

// PollFirst removes and returns the first key.
func (s *Set[E]) PollFirst() (E, bool) {
	return keyOf(s.pollFirstNode())
}

// PollLast removes and returns the last key.
func (s *Set[E]) PollLast() (E, bool) {
	return keyOf(s.pollLastNode())
}

// Descending returns a view of the same keys in the opposite order.
func (s *Set[E]) Descending() *Set[E] {
	return &Set[E]{s.reversed()}
}

// HeadSet returns the keys before to.
func (s *Set[E]) HeadSet(to E) (*Set[E], error) {
	return s.HeadSetBound(to, false)
}

// HeadSetBound returns the keys before to, and to itself when inclusive.
func (s *Set[E]) HeadSetBound(to E, inclusive bool) (*Set[E], error) {
	return toSet(s.headView(to, inclusive))
}

// TailSet returns the keys from from on, from included.
func (s *Set[E]) TailSet(from E) (*Set[E], error) {
	return s.TailSetBound(from, true)
}

// TailSetBound returns the keys after from, and from itself when inclusive.
func (s *Set[E]) TailSetBound(from E, inclusive bool) (*Set[E], error) {
	return toSet(s.tailView(from, inclusive))
}

// SubSet returns the keys from from, included, up to to, excluded.
func (s *Set[E]) SubSet(from, to E) (*Set[E], error) {
	return s.SubSetBounds(from, true, to, false)
}

// SubSetBounds returns the keys between from and to. It fails with
// ErrOutOfRange when the ends are out of order in the set or lie outside
// its range.
func (s *Set[E]) SubSetBounds(from E, fromInclusive bool, to E, toInclusive bool) (*Set[E], error) {
	return toSet(s.subView(from, fromInclusive, to, toInclusive))
}

func toSet[E Key[E]](v view[E, EmptyValue], err error) (*Set[E], error) {
	if err != nil {
		return nil, err
	}
	return &Set[E]{v}, nil
}

// Iterator returns the keys in set order. Removal goes through to the trie.
func (s *Set[E]) Iterator() KeyIterator[E] {
	return keyIterator[E, EmptyValue]{s.iterator()}
}

// All returns the keys in set order.
func (s *Set[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		it := s.iterator()
		for next := it.Next(); next != nil; next = it.Next() {
			if !yield(next.key) {
				return
			}
		}
	}
}

// AsTrie copies the keys of the set into a new trie.
func (s *Set[E]) AsTrie() *Trie[E] {
	return &Trie[E]{s.bounded.clone()}
}

func (s *Set[E]) String() string {
	builder := strings.Builder{}
	builder.WriteByte('[')
	first := true
	for key := range s.All() {
		if !first {
			builder.WriteString(", ")
		}
		first = false
		builder.WriteString(key.String())
	}
	builder.WriteByte(']')
	return builder.String()
}

func keyOf[E Key[E], V any](node *TrieNode[E, V]) (E, bool) {
	return node.Key(), node != nil
}
