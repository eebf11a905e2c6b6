// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"fmt"
	"math/bits"

	"lukechampine.com/uint128"
)

// Key is the address model consumed by the trie. A key is either a single
// address or a prefix block: a prefix of PrefixLen bits followed by all
// possible values of the remaining bits.
//
// All keys stored in one trie share the same BitCount and segment layout.
type Key[E any] interface {
	fmt.Stringer

	// BitCount is the total number of bits, 32 for IPv4 and 128 for IPv6.
	BitCount() int

	// PrefixLen returns the prefix length, or false when the key has none.
	PrefixLen() (int, bool)

	// IsMultiple reports whether the key represents more than one address.
	IsMultiple() bool

	// IsSinglePrefixBlock reports whether the key is exactly the block of
	// all addresses sharing its prefix.
	IsSinglePrefixBlock() bool

	// WithoutPrefixLen returns the key with its prefix length removed.
	WithoutPrefixLen() E

	// ToPrefixBlockLen returns the prefix block of the given length containing the key.
	ToPrefixBlockLen(prefixLen int) E

	SegmentCount() int
	BitsPerSegment() int
	SegmentValue(index int) uint32

	// IsOneBit reports whether the bit at index is 1, index 0 being the most significant.
	IsOneBit(index int) bool

	// IsZero and IsMax report whether the key is the lowest or highest single address.
	IsZero() bool
	IsMax() bool
}

// Uint32Key is implemented by 32-bit keys that can expose their bits packed
// into a single integer, enabling the packed matching path.
type Uint32Key interface {
	Uint32Value() uint32
}

// Uint128Key is the 128-bit counterpart of Uint32Key.
type Uint128Key interface {
	Uint128Value() uint128.Uint128
}

func keyPrefixLen[E Key[E]](key E) int {
	if pl, ok := key.PrefixLen(); ok {
		return pl
	}
	return key.BitCount()
}

// normalizeKey converts a key to the form stored in the trie: prefix blocks
// stay as they are, a full-length block or a prefixed single address becomes
// a plain address, and anything else is rejected.
func normalizeKey[E Key[E]](key E) E {
	pl, ok := key.PrefixLen()
	if !ok {
		return key
	}
	if key.IsSinglePrefixBlock() {
		if pl == key.BitCount() {
			return key.WithoutPrefixLen()
		}
		return key
	}
	if !key.IsMultiple() {
		return key.WithoutPrefixLen()
	}
	panic(newKeyError(key, ErrInvalidKey))
}

// keyStrategy holds the family specific bit operations of one trie.
type keyStrategy[E Key[E]] interface {
	// match compares the existing node key with the searched key, starting
	// at bitIndex, bits before bitIndex being known to match.
	match(existing, key E, bitIndex int) (matchKind, int)
	compare(a, b E) int
}

func newKeyStrategy[E Key[E]](key E) keyStrategy[E] {
	switch key.BitCount() {
	case 32:
		if _, ok := any(key).(Uint32Key); ok {
			return packed32Strategy[E]{}
		}
	case 128:
		if _, ok := any(key).(Uint128Key); ok {
			return packed128Strategy[E]{}
		}
	}
	return segmentStrategy[E]{bitsPerSegment: key.BitsPerSegment()}
}

type packed32Strategy[E Key[E]] struct{}

func (packed32Strategy[E]) match(existing, key E, _ int) (matchKind, int) {
	return matchUint32(any(existing).(Uint32Key).Uint32Value(), keyPrefixLen(existing),
		any(key).(Uint32Key).Uint32Value(), keyPrefixLen(key))
}

func (packed32Strategy[E]) compare(a, b E) int {
	return compareUint32(any(a).(Uint32Key).Uint32Value(), keyPrefixLen(a),
		any(b).(Uint32Key).Uint32Value(), keyPrefixLen(b))
}

type packed128Strategy[E Key[E]] struct{}

func (packed128Strategy[E]) match(existing, key E, _ int) (matchKind, int) {
	return matchUint128(any(existing).(Uint128Key).Uint128Value(), keyPrefixLen(existing),
		any(key).(Uint128Key).Uint128Value(), keyPrefixLen(key))
}

func (packed128Strategy[E]) compare(a, b E) int {
	return compareUint128(any(a).(Uint128Key).Uint128Value(), keyPrefixLen(a),
		any(b).(Uint128Key).Uint128Value(), keyPrefixLen(b))
}

// segmentStrategy walks the keys segment by segment, for key types with no
// packed representation.
type segmentStrategy[E Key[E]] struct {
	bitsPerSegment int
}

// firstDifference returns the index of the first bit in [bitIndex, limit)
// where the keys differ, or limit if there is none.
func (s segmentStrategy[E]) firstDifference(a, b E, bitIndex, limit int) int {
	for segIndex := bitIndex / s.bitsPerSegment; segIndex*s.bitsPerSegment < limit; segIndex++ {
		diff := a.SegmentValue(segIndex) ^ b.SegmentValue(segIndex)
		if diff == 0 {
			continue
		}
		idx := segIndex*s.bitsPerSegment + bits.LeadingZeros32(diff) - (32 - s.bitsPerSegment)
		return min(idx, limit)
	}
	return limit
}

func (s segmentStrategy[E]) match(existing, key E, bitIndex int) (matchKind, int) {
	existingBits, keyBits := keyPrefixLen(existing), keyPrefixLen(key)
	limit := min(existingBits, keyBits)
	if idx := s.firstDifference(existing, key, bitIndex, limit); idx < limit {
		return bitsDoNotMatch, idx
	}
	return matchByLength(existingBits, keyBits)
}

func (s segmentStrategy[E]) compare(a, b E) int {
	aBits, bBits := keyPrefixLen(a), keyPrefixLen(b)
	shorter := min(aBits, bBits)
	if idx := s.firstDifference(a, b, 0, shorter); idx < shorter {
		if a.IsOneBit(idx) {
			return 1
		}
		return -1
	}
	switch {
	case aBits == bBits:
		return 0
	case aBits < bBits:
		if b.IsOneBit(aBits) {
			return -1
		}
		return 1
	default:
		if a.IsOneBit(bBits) {
			return 1
		}
		return -1
	}
}
