// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"net/netip"
	"slices"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

// nearKeys holds the floor, lower, ceiling and higher keys, "" for none.
type nearKeys [4]string

func nearOf(trie *Trie[Prefix], key Prefix) nearKeys {
	var result nearKeys
	for i, near := range []func(Prefix) (Prefix, bool){trie.Floor, trie.Lower, trie.Ceiling, trie.Higher} {
		if found, ok := near(key); ok {
			result[i] = found.String()
		}
	}
	return result
}

func nearOfSorted(sorted []Prefix, key Prefix) nearKeys {
	var result nearKeys
	at := func(i int) string {
		if i < 0 || i >= len(sorted) {
			return ""
		}
		return sorted[i].String()
	}
	i, found := slices.BinarySearchFunc(sorted, key, referenceCompare)
	if found {
		result = nearKeys{at(i), at(i - 1), at(i), at(i + 1)}
	} else {
		result = nearKeys{at(i - 1), at(i - 1), at(i), at(i)}
	}
	return result
}

func TestNear_AgainstSortedKeys(t *testing.T) {
	t.Parallel()

	for _, ipv6 := range []bool{false, true} {
		keys := randomKeys(t, 300, ipv6)
		trie := newTrie(keys...)
		sorted := sortedDistinct(keys)
		probes := append(randomKeys(t, 300, ipv6), sorted...)
		probes = append(probes, trie.Root().Key())
		for _, probe := range probes {
			require.Equal(t, nearOfSorted(sorted, probe), nearOf(trie, probe), "near %s", probe)
		}
	}
}

func TestNear_Quick(t *testing.T) {
	t.Parallel()

	keys := randomKeys(t, 200, false)
	trie := newTrie(keys...)
	sorted := sortedDistinct(keys)

	probe := func(addr uint32, bits uint8) Prefix {
		raw := [4]byte{10 + byte(addr>>24)%2, byte(addr >> 16), byte(addr >> 8), byte(addr)}
		key, err := PrefixFrom(netip.PrefixFrom(netip.AddrFrom4(raw), int(bits)%33).Masked())
		require.NoError(t, err)
		return key
	}
	fromTrie := func(addr uint32, bits uint8) nearKeys {
		return nearOf(trie, probe(addr, bits))
	}
	fromSorted := func(addr uint32, bits uint8) nearKeys {
		return nearOfSorted(sorted, probe(addr, bits))
	}
	require.NoError(t, quick.CheckEqual(fromTrie, fromSorted, &quick.Config{MaxCount: 2000}))
}

func TestNear_Blocks(t *testing.T) {
	t.Parallel()

	trie := newTrie(p("192.168.0.0/16"))
	block := p("192.168.0.0/16")

	// addresses with a 1 after the prefix sort after the block, with a 0 before it
	floor, ok := trie.Floor(p("192.168.200.5"))
	require.True(t, ok)
	require.Equal(t, block, floor)
	_, ok = trie.Floor(p("192.168.5.5"))
	require.False(t, ok)

	ceiling, ok := trie.Ceiling(p("192.168.5.5"))
	require.True(t, ok)
	require.Equal(t, block, ceiling)
	_, ok = trie.Ceiling(p("192.168.200.5"))
	require.False(t, ok)

	ceiling, ok = trie.Ceiling(block)
	require.True(t, ok)
	require.Equal(t, block, ceiling)
	floor, ok = trie.Floor(block)
	require.True(t, ok)
	require.Equal(t, block, floor)

	_, ok = trie.Lower(block)
	require.False(t, ok)
	_, ok = trie.Higher(block)
	require.False(t, ok)

	trie.Add(p("192.168.1.0/24"))
	trie.Add(p("192.169.0.0/16"))
	lower, ok := trie.Lower(block)
	require.True(t, ok)
	require.Equal(t, p("192.168.1.0/24"), lower)
	higher, ok := trie.Higher(block)
	require.True(t, ok)
	require.Equal(t, p("192.169.0.0/16"), higher)

	require.Equal(t, p("192.168.1.0/24"), trie.CeilingAddedNode(p("192.168.0.5")).Key())
	require.Nil(t, (&Trie[Prefix]{}).FloorAddedNode(block))
}
