// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"fmt"
	"iter"
	"strings"
)

// Map is an ordered map view of an AssociativeTrie, possibly restricted to a
// range of keys and possibly in descending order. Changes to the trie show
// through the map and the other way around.
//
// Entries are returned as trie nodes. Nodes returned by the Poll methods are
// detached copies.
type Map[E Key[E], V any] struct {
	view[E, V]
}

func newMap[E Key[E], V any](t *trie[E, V]) *Map[E, V] {
	return &Map[E, V]{newView(t)}
}

// Bounds returns the range of the map, nil when it is not restricted.
func (m *Map[E, V]) Bounds() *Bounds[E] {
	return m.bounded.bounds
}

// IsDescending reports whether the map runs in reverse natural order.
func (m *Map[E, V]) IsDescending() bool {
	return m.descending
}

func (m *Map[E, V]) Size() int {
	return m.bounded.size()
}

func (m *Map[E, V]) IsEmpty() bool {
	return m.bounded.isEmpty()
}

func (m *Map[E, V]) ContainsKey(key E) bool {
	return m.bounded.getNode(key) != nil
}

// Get returns the value mapped to the key, if the key is in range.
func (m *Map[E, V]) Get(key E) (V, bool) {
	node := m.bounded.getNode(key)
	return node.Value(), node != nil
}

// Put maps the value to the key, returning the previous value and whether
// there was one. Keys outside the range fail with ErrOutOfRange.
func (m *Map[E, V]) Put(key E, value V) (V, bool, error) {
	key = m.bounded.trie.checkKey(key)
	if err := m.bounded.checkInBounds(key); err != nil {
		var zero V
		return zero, false, err
	}
	result := m.bounded.trie.put(key, value)
	return result.existingValue, result.exists, nil
}

// Remove removes the key, returning its value and whether it was in the map.
func (m *Map[E, V]) Remove(key E) (V, bool) {
	removed := m.bounded.remove(key)
	return removed.Value(), removed != nil
}

// Clear removes every key in range from the trie.
func (m *Map[E, V]) Clear() {
	m.bounded.clear()
}

func (m *Map[E, V]) FirstEntry() *TrieNode[E, V] {
	return m.firstNode()
}

func (m *Map[E, V]) LastEntry() *TrieNode[E, V] {
	return m.lastNode()
}

func (m *Map[E, V]) FirstKey() (E, bool) {
	return keyOf(m.firstNode())
}

func (m *Map[E, V]) LastKey() (E, bool) {
	return keyOf(m.lastNode())
}

// FloorEntry returns the entry with the greatest key not after key, in map order.
func (m *Map[E, V]) FloorEntry(key E) *TrieNode[E, V] {
	return m.floorNode(key)
}

// LowerEntry returns the entry with the greatest key before key, in map order.
func (m *Map[E, V]) LowerEntry(key E) *TrieNode[E, V] {
	return m.lowerNode(key)
}

// CeilingEntry returns the entry with the least key not before key, in map order.
func (m *Map[E, V]) CeilingEntry(key E) *TrieNode[E, V] {
	return m.ceilingNode(key)
}

// HigherEntry returns the entry with the least key after key, in map order.
func (m *Map[E, V]) HigherEntry(key E) *TrieNode[E, V] {
	return m.higherNode(key)
}

func (m *Map[E, V]) FloorKey(key E) (E, bool) {
	return keyOf(m.floorNode(key))
}

func (m *Map[E, V]) LowerKey(key E) (E, bool) {
	return keyOf(m.lowerNode(key))
}

func (m *Map[E, V]) CeilingKey(key E) (E, bool) {
	return keyOf(m.ceilingNode(key))
}

func (m *Map[E, V]) HigherKey(key E) (E, bool) {
	return keyOf(m.higherNode(key))
}

// PollFirstEntry removes the first entry and returns a copy of it.
func (m *Map[E, V]) PollFirstEntry() *TrieNode[E, V] {
	return m.pollFirstNode()
}

// PollLastEntry removes the last entry and returns a copy of it.
func (m *Map[E, V]) PollLastEntry() *TrieNode[E, V] {
	return m.pollLastNode()
}

// Descending returns a view of the same entries in the opposite order.
func (m *Map[E, V]) Descending() *Map[E, V] {
	return &Map[E, V]{m.reversed()}
}

// HeadMap returns the entries with keys before to.
func (m *Map[E, V]) HeadMap(to E) (*Map[E, V], error) {
	return m.HeadMapBound(to, false)
}

// HeadMapBound returns the entries with keys before to, and to itself when inclusive.
func (m *Map[E, V]) HeadMapBound(to E, inclusive bool) (*Map[E, V], error) {
	return toMap(m.headView(to, inclusive))
}

// TailMap returns the entries with keys from from on, from included.
func (m *Map[E, V]) TailMap(from E) (*Map[E, V], error) {
	return m.TailMapBound(from, true)
}

// TailMapBound returns the entries with keys after from, and from itself when inclusive.
func (m *Map[E, V]) TailMapBound(from E, inclusive bool) (*Map[E, V], error) {
	return toMap(m.tailView(from, inclusive))
}

// SubMap returns the entries with keys from from, included, up to to, excluded.
func (m *Map[E, V]) SubMap(from, to E) (*Map[E, V], error) {
	return m.SubMapBounds(from, true, to, false)
}

// SubMapBounds returns the entries with keys between from and to. It fails
// with ErrOutOfRange when the ends are out of order in the map or lie
// outside its range.
func (m *Map[E, V]) SubMapBounds(from E, fromInclusive bool, to E, toInclusive bool) (*Map[E, V], error) {
	return toMap(m.subView(from, fromInclusive, to, toInclusive))
}

func toMap[E Key[E], V any](v view[E, V], err error) (*Map[E, V], error) {
	if err != nil {
		return nil, err
	}
	return &Map[E, V]{v}, nil
}

// Iterator returns the entries in map order. Removal goes through to the trie.
func (m *Map[E, V]) Iterator() NodeIteratorRem[E, V] {
	return m.iterator()
}

// All returns the keys and values in map order.
func (m *Map[E, V]) All() iter.Seq2[E, V] {
	return func(yield func(E, V) bool) {
		it := m.iterator()
		for next := it.Next(); next != nil; next = it.Next() {
			if !yield(next.key, next.value) {
				return
			}
		}
	}
}

// Keys returns the keys in map order.
func (m *Map[E, V]) Keys() iter.Seq[E] {
	return func(yield func(E) bool) {
		for key := range m.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Values returns the values in map order of their keys.
func (m *Map[E, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, value := range m.All() {
			if !yield(value) {
				return
			}
		}
	}
}

// AsTrie copies the entries of the map into a new trie.
func (m *Map[E, V]) AsTrie() *AssociativeTrie[E, V] {
	return &AssociativeTrie[E, V]{m.bounded.clone()}
}

func (m *Map[E, V]) String() string {
	builder := strings.Builder{}
	builder.WriteByte('{')
	first := true
	for key, value := range m.All() {
		if !first {
			builder.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&builder, "%s=%v", key, value)
	}
	builder.WriteByte('}')
	return builder.String()
}
