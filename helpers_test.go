// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"fmt"
	"net/netip"
	"slices"
	"testing"

	"github.com/hashicorp/go-uuid"
	"github.com/stretchr/testify/require"
)

func p(s string) Prefix {
	return MustParsePrefix(s)
}

func prefixes(ss ...string) []Prefix {
	result := make([]Prefix, 0, len(ss))
	for _, s := range ss {
		result = append(result, p(s))
	}
	return result
}

// randomKeys returns IPv4 keys below 10.0.0.0/7 with prefix lengths from 8
// to 32, or IPv6 keys below 2001:db8::/32 with lengths from 32 to 128, so
// that they share enough leading bits to build junctions.
func randomKeys(t *testing.T, count int, ipv6 bool) []Prefix {
	t.Helper()
	result := make([]Prefix, 0, count)
	for len(result) < count {
		b, err := uuid.GenerateRandomBytes(17)
		require.NoError(t, err)
		var prefix netip.Prefix
		if ipv6 {
			raw := [16]byte(b[:16])
			raw[0], raw[1], raw[2], raw[3] = 0x20, 0x01, 0x0d, 0xb8
			prefix = netip.PrefixFrom(netip.AddrFrom16(raw), 32+int(b[16])%97)
		} else {
			raw := [4]byte(b[:4])
			raw[0] = 10 + raw[0]%2
			prefix = netip.PrefixFrom(netip.AddrFrom4(raw), 8+int(b[16])%25)
		}
		key, err := PrefixFrom(prefix.Masked())
		require.NoError(t, err)
		result = append(result, key)
	}
	return result
}

// referenceCompare orders keys bit by bit, the way the trie is expected to.
func referenceCompare(a, b Prefix) int {
	aLen, bLen := keyPrefixLen(a), keyPrefixLen(b)
	for i := 0; i < min(aLen, bLen); i++ {
		if aBit, bBit := a.IsOneBit(i), b.IsOneBit(i); aBit != bBit {
			if aBit {
				return 1
			}
			return -1
		}
	}
	switch {
	case aLen == bLen:
		return 0
	case aLen > bLen:
		if a.IsOneBit(bLen) {
			return 1
		}
		return -1
	default:
		if b.IsOneBit(aLen) {
			return -1
		}
		return 1
	}
}

func sortedDistinct(keys []Prefix) []Prefix {
	seen := make(map[Prefix]bool)
	var result []Prefix
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			result = append(result, key)
		}
	}
	slices.SortFunc(result, referenceCompare)
	return result
}

func newTrie(keys ...Prefix) *Trie[Prefix] {
	trie := &Trie[Prefix]{}
	for _, key := range keys {
		trie.Add(key)
	}
	return trie
}

func nodeKeys[E Key[E], V any](it NodeIterator[E, V]) []E {
	var result []E
	for next := it.Next(); next != nil; next = it.Next() {
		result = append(result, next.Key())
	}
	return result
}

// checkStructure verifies links, sizes and the junction rule of the
// sub-tree, returning its size.
func checkStructure[E Key[E], V any](t *testing.T, n *TrieNode[E, V]) int {
	t.Helper()
	if n == nil {
		return 0
	}
	size := 0
	if n.added {
		size = 1
	}
	parentLen := keyPrefixLen(n.key)
	for _, child := range []*TrieNode[E, V]{n.lower, n.upper} {
		if child == nil {
			continue
		}
		require.Same(t, n, child.parent, "parent link of %s", child)
		require.Greater(t, keyPrefixLen(child.key), parentLen, "%s below %s", child, n)
		require.Equal(t, child == n.upper, child.key.IsOneBit(parentLen), "side of %s below %s", child, n)
		for i := 0; i < parentLen; i++ {
			if n.key.IsOneBit(i) != child.key.IsOneBit(i) {
				require.Fail(t, fmt.Sprintf("%s is not inside %s", child, n))
			}
		}
		size += checkStructure(t, child)
	}
	if n.parent != nil && !n.added {
		require.True(t, n.lower != nil && n.upper != nil, "junction %s needs two sub-nodes", n)
	}
	require.Equal(t, size, n.size, "size of %s", n)
	return size
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return nil
}
