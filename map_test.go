// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPrivateRanges() *AssociativeTrie[Prefix, string] {
	return newAssociative(
		"10.0.0.0/8", "ten",
		"10.1.0.0/16", "ten-one",
		"172.16.0.0/12", "private",
		"192.168.0.0/16", "home",
		"192.168.1.0/24", "lan",
	)
}

func TestMap_Entries(t *testing.T) {
	t.Parallel()

	trie := newPrivateRanges()
	m := trie.AsMap()
	require.Equal(t, 5, m.Size())
	require.Equal(t, "{10.1.0.0/16=ten-one, 10.0.0.0/8=ten, 172.16.0.0/12=private, 192.168.1.0/24=lan, 192.168.0.0/16=home}", m.String())
	require.Equal(t, []string{"ten-one", "ten", "private", "lan", "home"}, slices.Collect(m.Values()))

	value, ok := m.Get(p("172.16.0.0/12"))
	require.True(t, ok)
	require.Equal(t, "private", value)
	require.True(t, m.ContainsKey(p("10.0.0.0/8")))
	require.False(t, m.ContainsKey(p("10.0.0.0/9")))

	require.Equal(t, "ten-one", m.FirstEntry().Value())
	require.Equal(t, "home", m.LastEntry().Value())
	key, ok := m.FirstKey()
	require.True(t, ok)
	require.Equal(t, p("10.1.0.0/16"), key)

	require.Equal(t, "ten", m.FloorEntry(p("10.200.0.0/16")).Value())
	require.Equal(t, "private", m.CeilingEntry(p("10.200.0.0/16")).Value())
	require.Equal(t, "ten-one", m.LowerEntry(p("10.0.0.0/8")).Value())
	require.Equal(t, "private", m.HigherEntry(p("10.0.0.0/8")).Value())
	higher, ok := m.HigherKey(p("192.168.0.0/16"))
	require.False(t, ok)
	require.False(t, higher.IsValid())

	old, found, err := m.Put(p("10.1.0.0/16"), "one")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ten-one", old)
	value, _ = trie.Get(p("10.1.0.0/16"))
	require.Equal(t, "one", value)

	removed, ok := m.Remove(p("192.168.1.0/24"))
	require.True(t, ok)
	require.Equal(t, "lan", removed)
	require.False(t, trie.Contains(p("192.168.1.0/24")))
	_, ok = m.Remove(p("192.168.1.0/24"))
	require.False(t, ok)
}

func TestMap_SubMaps(t *testing.T) {
	t.Parallel()

	trie := newPrivateRanges()
	m := trie.AsMap()

	head, err := m.HeadMap(p("172.16.0.0/12"))
	require.NoError(t, err)
	require.Equal(t, "{10.1.0.0/16=ten-one, 10.0.0.0/8=ten}", head.String())

	tail, err := m.TailMap(p("172.16.0.0/12"))
	require.NoError(t, err)
	require.Equal(t, 3, tail.Size())
	require.Equal(t, p("192.168.0.0/16"), func() Prefix { k, _ := tail.LastKey(); return k }())

	sub, err := m.SubMapBounds(p("10.0.0.0/8"), false, p("192.168.0.0/16"), true)
	require.NoError(t, err)
	require.Equal(t, []Prefix{p("172.16.0.0/12"), p("192.168.1.0/24"), p("192.168.0.0/16")}, slices.Collect(sub.Keys()))

	desc := sub.Descending()
	require.True(t, desc.IsDescending())
	require.Equal(t, "{192.168.0.0/16=home, 192.168.1.0/24=lan, 172.16.0.0/12=private}", desc.String())
	descHead, err := desc.HeadMapBound(p("192.168.1.0/24"), true)
	require.NoError(t, err)
	require.Equal(t, "{192.168.0.0/16=home, 192.168.1.0/24=lan}", descHead.String())
	descTail, err := desc.TailMapBound(p("192.168.1.0/24"), false)
	require.NoError(t, err)
	require.Equal(t, "{172.16.0.0/12=private}", descTail.String())

	// values outside the range are hidden and cannot be put
	_, ok := sub.Get(p("10.0.0.0/8"))
	require.False(t, ok)
	_, _, err = sub.Put(p("10.0.0.0/8"), "x")
	require.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = sub.Put(p("11.0.0.0/8"), "eleven")
	require.NoError(t, err)
	require.True(t, trie.Contains(p("11.0.0.0/8")))

	_, err = sub.SubMap(p("10.0.0.0/8"), p("172.16.0.0/12"))
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = head.TailMapBound(p("192.168.0.0/16"), false)
	require.ErrorIs(t, err, ErrOutOfRange)

	copied := sub.AsTrie()
	require.Equal(t, 4, copied.Size())
	require.True(t, copied.DeepEqual(newAssociative(
		"11.0.0.0/8", "eleven",
		"172.16.0.0/12", "private",
		"192.168.0.0/16", "home",
		"192.168.1.0/24", "lan",
	)))
	checkStructure(t, copied.Root())

	// the copy is independent
	copied.Put(p("192.168.0.0/16"), "changed")
	value, _ := trie.Get(p("192.168.0.0/16"))
	require.Equal(t, "home", value)
}

func TestMap_PollAndClear(t *testing.T) {
	t.Parallel()

	trie := newPrivateRanges()
	sub, err := trie.AsMap().SubMap(p("172.16.0.0/12"), p("192.168.0.0/16"))
	require.NoError(t, err)

	polled := sub.PollFirstEntry()
	require.Equal(t, p("172.16.0.0/12"), polled.Key())
	require.Equal(t, "private", polled.Value())
	require.True(t, polled.IsAdded())
	require.Nil(t, polled.Parent())
	require.False(t, trie.Contains(p("172.16.0.0/12")))

	polled = sub.PollLastEntry()
	require.Equal(t, p("192.168.1.0/24"), polled.Key())
	require.Nil(t, sub.PollLastEntry())
	require.True(t, sub.IsEmpty())

	trie.Put(p("172.24.0.0/16"), "docker")
	require.Equal(t, 1, sub.Size())
	sub.Clear()
	require.Equal(t, 3, trie.Size())
	require.Equal(t, "{10.1.0.0/16=ten-one, 10.0.0.0/8=ten, 192.168.0.0/16=home}", trie.AsMap().String())
}

func TestMap_IteratorRemove(t *testing.T) {
	t.Parallel()

	trie := newPrivateRanges()
	desc := trie.AsMap().Descending()
	it := desc.Iterator()
	var seen []string
	for next := it.Next(); next != nil; next = it.Next() {
		seen = append(seen, next.Value())
		if next.Value() != "home" {
			it.Remove()
		}
	}
	require.Equal(t, []string{"home", "lan", "private", "ten", "ten-one"}, seen)
	require.Equal(t, 1, trie.Size())
	checkStructure(t, trie.Root())

	count := 0
	for range desc.All() {
		count++
	}
	require.Equal(t, 1, count)
}
