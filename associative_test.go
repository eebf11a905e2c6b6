// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newAssociative(pairs ...string) *AssociativeTrie[Prefix, string] {
	trie := &AssociativeTrie[Prefix, string]{}
	for i := 0; i < len(pairs); i += 2 {
		trie.Put(p(pairs[i]), pairs[i+1])
	}
	return trie
}

func TestAssociativeTrie_PutGet(t *testing.T) {
	t.Parallel()

	trie := &AssociativeTrie[Prefix, string]{}
	old, found := trie.Put(p("10.0.0.0/8"), "ten")
	require.False(t, found)
	require.Empty(t, old)

	old, found = trie.Put(p("10.0.0.0/8"), "TEN")
	require.True(t, found)
	require.Equal(t, "ten", old)
	require.Equal(t, 1, trie.Size())

	value, ok := trie.Get(p("10.0.0.0/8"))
	require.True(t, ok)
	require.Equal(t, "TEN", value)
	_, ok = trie.Get(p("10.1.0.0/16"))
	require.False(t, ok)

	require.False(t, trie.PutNew(p("10.0.0.0/8"), "ignored"))
	require.True(t, trie.PutNew(p("10.1.0.0/16"), "one"))
	value, _ = trie.Get(p("10.0.0.0/8"))
	require.Equal(t, "TEN", value)

	node := trie.PutNode(p("10.1.2.0/24"), "two")
	require.Equal(t, "two", node.Value())
	node.SetValue("TWO")
	value, _ = trie.Get(p("10.1.2.0/24"))
	require.Equal(t, "TWO", value)

	// the value of an address comes from the most specific block
	match := trie.LongestPrefixMatchNode(p("10.1.2.3"))
	require.Equal(t, "TWO", match.Value())
	match = trie.ShortestPrefixMatchNode(p("10.1.2.3"))
	require.Equal(t, "TEN", match.Value())
}

func TestAssociativeTrie_Remap(t *testing.T) {
	t.Parallel()

	trie := &AssociativeTrie[Prefix, int]{}
	increment := func(existing int, found bool) (int, bool) {
		return existing + 1, true
	}
	key := p("10.1.0.0/16")
	for i := 1; i <= 3; i++ {
		node := trie.Remap(key, increment)
		require.Equal(t, i, node.Value())
	}
	require.Equal(t, 1, trie.Size())

	// removing an absent key changes nothing
	require.Nil(t, trie.Remap(p("10.2.0.0/16"), func(int, bool) (int, bool) { return 0, false }))
	require.Equal(t, 1, trie.Size())

	require.Nil(t, trie.Remap(key, func(existing int, found bool) (int, bool) {
		require.True(t, found)
		require.Equal(t, 3, existing)
		return 0, false
	}))
	require.True(t, trie.IsEmpty())
	checkStructure(t, trie.Root())

	calls := 0
	supplier := func() int {
		calls++
		return 42
	}
	require.Equal(t, 42, trie.RemapIfAbsent(key, supplier).Value())
	require.Equal(t, 42, trie.RemapIfAbsent(key, supplier).Value())
	require.Equal(t, 1, calls)

	// a remap on a junction adds it in place
	trie.Put(p("10.2.0.0/16"), 2)
	require.False(t, trie.GetNode(p("10.0.0.0/14")).IsAdded())
	node := trie.RemapIfAbsent(p("10.0.0.0/14"), supplier)
	require.True(t, node.IsAdded())
	require.Equal(t, 3, trie.Size())
	checkStructure(t, trie.Root())
}

func TestAssociativeTrie_RemapConcurrentModification(t *testing.T) {
	t.Parallel()

	trie := newAssociative("10.0.0.0/8", "ten")
	err := recoverError(func() {
		trie.Remap(p("10.0.0.0/8"), func(existing string, found bool) (string, bool) {
			trie.Put(p("192.168.0.0/16"), "private")
			return existing + "!", true
		})
	})
	require.ErrorIs(t, err, ErrConcurrentModification)

	// a remapper that changes the trie but asks for no change is accepted
	trie.RemapIfAbsent(p("10.0.0.0/8"), func() string {
		panic("not called for an added key")
	})
	err = recoverError(func() {
		trie.Remap(p("172.16.0.0/12"), func(string, bool) (string, bool) {
			trie.Put(p("172.17.0.0/16"), "nested")
			return "", false
		})
	})
	require.NoError(t, err)
	require.Equal(t, 3, trie.Size())
}

func TestAssociativeTrie_PutTrie(t *testing.T) {
	t.Parallel()

	source := newAssociative("10.1.0.0/16", "one", "10.2.0.0/16", "two", "10.2.3.0/24", "three")
	target := newAssociative("10.0.0.0/8", "ten", "10.2.0.0/16", "old")

	node := target.PutTrie(source.ElementsContainedBy(p("10.0.0.0/8")))
	require.Equal(t, p("10.0.0.0/14"), node.Key())
	require.Equal(t, 4, target.Size())
	for _, key := range prefixes("10.1.0.0/16", "10.2.0.0/16", "10.2.3.0/24") {
		want, _ := source.Get(key)
		got, ok := target.Get(key)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	value, _ := target.Get(p("10.0.0.0/8"))
	require.Equal(t, "ten", value)
	checkStructure(t, target.Root())

	// AddTrie leaves values alone
	plain := newAssociative("10.2.0.0/16", "kept")
	plain.AddTrie(source.Root())
	value, _ = plain.Get(p("10.2.0.0/16"))
	require.Equal(t, "kept", value)
	value, ok := plain.Get(p("10.1.0.0/16"))
	require.True(t, ok)
	require.Empty(t, value)
}

func TestAssociativeTrie_CloneAndDeepEqual(t *testing.T) {
	t.Parallel()

	trie := newAssociative("10.0.0.0/8", "ten", "10.1.0.0/16", "one")
	clone := trie.Clone()
	require.True(t, trie.Equal(clone))
	require.True(t, trie.DeepEqual(clone))

	clone.Put(p("10.1.0.0/16"), "uno")
	require.True(t, trie.Equal(clone))
	require.False(t, trie.DeepEqual(clone))

	value, _ := trie.Get(p("10.1.0.0/16"))
	require.Equal(t, "one", value)
}

func TestAssociativeTrie_String(t *testing.T) {
	t.Parallel()

	trie := newAssociative("10.0.0.0/8", "ten", "10.1.0.0/16", "one")
	require.Equal(t, "\n"+
		"○ 0.0.0.0/0\n"+
		"└─● 10.0.0.0/8 = ten\n"+
		"  └─● 10.1.0.0/16 = one\n", trie.String())

	path := trie.ElementsContaining(p("10.1.2.3"))
	require.Equal(t, "one", path.Leaf().Value())
	require.Equal(t, "ten", path.Root().Value())
	require.True(t, path.Root().IsAdded())
}
