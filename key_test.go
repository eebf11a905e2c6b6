// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// segmentKey hides the packed accessors of Prefix so that tries of it match
// keys segment by segment.
type segmentKey struct {
	prefix Prefix
}

func (k segmentKey) String() string                { return k.prefix.String() }
func (k segmentKey) BitCount() int                 { return k.prefix.BitCount() }
func (k segmentKey) PrefixLen() (int, bool)        { return k.prefix.PrefixLen() }
func (k segmentKey) IsMultiple() bool              { return k.prefix.IsMultiple() }
func (k segmentKey) IsSinglePrefixBlock() bool     { return k.prefix.IsSinglePrefixBlock() }
func (k segmentKey) WithoutPrefixLen() segmentKey  { return segmentKey{k.prefix.WithoutPrefixLen()} }
func (k segmentKey) SegmentCount() int             { return k.prefix.SegmentCount() }
func (k segmentKey) BitsPerSegment() int           { return k.prefix.BitsPerSegment() }
func (k segmentKey) SegmentValue(index int) uint32 { return k.prefix.SegmentValue(index) }
func (k segmentKey) IsOneBit(index int) bool       { return k.prefix.IsOneBit(index) }
func (k segmentKey) IsZero() bool                  { return k.prefix.IsZero() }
func (k segmentKey) IsMax() bool                   { return k.prefix.IsMax() }

func (k segmentKey) ToPrefixBlockLen(prefixLen int) segmentKey {
	return segmentKey{k.prefix.ToPrefixBlockLen(prefixLen)}
}

func segmentKeys(keys []Prefix) []segmentKey {
	result := make([]segmentKey, 0, len(keys))
	for _, key := range keys {
		result = append(result, segmentKey{key})
	}
	return result
}

func TestSegmentStrategy_MatchesPackedTrie(t *testing.T) {
	t.Parallel()

	for _, ipv6 := range []bool{false, true} {
		keys := randomKeys(t, 400, ipv6)
		packed := newTrie(keys...)
		segmented := &Trie[segmentKey]{}
		for _, key := range segmentKeys(keys) {
			segmented.Add(key)
		}
		_, ok := segmented.strategy.(segmentStrategy[segmentKey])
		require.True(t, ok, "strategy %T", segmented.strategy)

		sorted := sortedDistinct(keys)
		require.Equal(t, segmentKeys(sorted), slices.Collect(segmented.Keys()))
		require.Equal(t, packed.TreeString(true, true), segmented.TreeString(true, true))
		checkStructure(t, segmented.Root())

		probes := append(randomKeys(t, 200, ipv6), sorted...)
		for _, probe := range probes {
			key := segmentKey{probe}
			var got nearKeys
			for i, near := range []func(segmentKey) (segmentKey, bool){segmented.Floor, segmented.Lower, segmented.Ceiling, segmented.Higher} {
				if found, ok := near(key); ok {
					got[i] = found.String()
				}
			}
			require.Equal(t, nearOf(packed, probe), got, "near %s", probe)
			require.Equal(t, packed.Contains(probe), segmented.Contains(key))

			want, wantOK := packed.LongestPrefixMatch(probe)
			match, matchOK := segmented.LongestPrefixMatch(key)
			require.Equal(t, wantOK, matchOK)
			require.Equal(t, segmentKey{want}, match)
		}

		for i, key := range sorted {
			if i%2 == 0 {
				require.True(t, segmented.Remove(segmentKey{key}))
				packed.Remove(key)
			}
		}
		checkStructure(t, segmented.Root())
		require.Equal(t, packed.TreeString(true, true), segmented.TreeString(true, true))
	}
}
