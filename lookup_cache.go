// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pkg/errors"
	"lukechampine.com/uint128"
)

// DefaultMatcherSize is the number of lookups a Matcher remembers when no
// size is given.
const DefaultMatcherSize = 8192

// Matcher memoizes longest prefix match lookups against a trie. The cache is
// dropped as soon as a key is added to or removed from the trie, so results
// are always those of the trie as it is.
//
// A Matcher is not safe for concurrent use.
type Matcher[E Key[E], V any] struct {
	trie  *trie[E, V]
	cache *simplelru.LRU[string, *TrieNode[E, V]]

	version uint128.Uint128
}

func newMatcher[E Key[E], V any](t *trie[E, V], size int) (*Matcher[E, V], error) {
	if size == 0 {
		size = DefaultMatcherSize
	}
	cache, err := simplelru.NewLRU[string, *TrieNode[E, V]](size, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating matcher cache of size %d", size)
	}
	return &Matcher[E, V]{trie: t, cache: cache, version: t.tracker().current()}, nil
}

// Matcher returns a Matcher remembering up to size lookups, or
// DefaultMatcherSize when size is 0. It fails for negative sizes.
func (t *Trie[E]) Matcher(size int) (*Matcher[E, EmptyValue], error) {
	return newMatcher(&t.trie, size)
}

// Matcher returns a Matcher remembering up to size lookups, or
// DefaultMatcherSize when size is 0. It fails for negative sizes.
func (t *AssociativeTrie[E, V]) Matcher(size int) (*Matcher[E, V], error) {
	return newMatcher(&t.trie, size)
}

// sync purges the cache if the trie changed since the last lookup.
func (m *Matcher[E, V]) sync() {
	if version := m.trie.tracker().current(); !version.Equals(m.version) {
		m.cache.Purge()
		m.version = version
	}
}

// LongestPrefixMatchNode returns the most specific added node containing key.
func (m *Matcher[E, V]) LongestPrefixMatchNode(key E) *TrieNode[E, V] {
	key = m.trie.checkKey(key)
	m.sync()
	cacheKey := key.String()
	if node, ok := m.cache.Get(cacheKey); ok {
		return node
	}
	node := m.trie.LongestPrefixMatchNode(key)
	m.cache.Add(cacheKey, node)
	return node
}

// LongestPrefixMatch returns the most specific added key containing key.
func (m *Matcher[E, V]) LongestPrefixMatch(key E) (E, bool) {
	return keyOf(m.LongestPrefixMatchNode(key))
}

// Get returns the value of the most specific added key containing key.
func (m *Matcher[E, V]) Get(key E) (V, bool) {
	node := m.LongestPrefixMatchNode(key)
	return node.Value(), node != nil
}

// Len returns the number of remembered lookups.
func (m *Matcher[E, V]) Len() int {
	m.sync()
	return m.cache.Len()
}
