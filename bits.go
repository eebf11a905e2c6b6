// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"math/bits"

	"golang.org/x/exp/constraints"
	"lukechampine.com/uint128"
)

var (
	masks32     [33]uint32
	nextBits32  [32]uint32
	masks128    [129]uint128.Uint128
	nextBits128 [128]uint128.Uint128
)

func init() {
	for i := range masks32 {
		masks32[i] = prefixMask[uint32](32, i)
	}
	for i := range nextBits32 {
		nextBits32[i] = bitAt[uint32](32, i)
	}
	for i := range masks128 {
		masks128[i] = uint128.New(prefixMask[uint64](64, i-64), prefixMask[uint64](64, i))
	}
	for i := range nextBits128 {
		if i < 64 {
			nextBits128[i] = uint128.New(0, bitAt[uint64](64, i))
		} else {
			nextBits128[i] = uint128.New(bitAt[uint64](64, i-64), 0)
		}
	}
}

// prefixMask returns a width-bit value with the leading prefixLen bits set.
func prefixMask[T constraints.Unsigned](width, prefixLen int) T {
	if prefixLen <= 0 {
		return 0
	}
	all := ^T(0)
	if prefixLen >= width {
		return all
	}
	return all << (width - prefixLen)
}

// bitAt returns a width-bit value with only the bit at index set, index 0 being the most significant.
func bitAt[T constraints.Unsigned](width, index int) T {
	return T(1) << (width - 1 - index)
}

func matchByLength(existingBits, keyBits int) (matchKind, int) {
	switch {
	case existingBits == keyBits:
		return bitsMatch, existingBits
	case existingBits < keyBits:
		return bitsMatchPartially, existingBits
	default:
		// the key is shorter and contains the existing node
		return bitsDoNotMatch, keyBits
	}
}

func matchUint32(existing uint32, existingBits int, key uint32, keyBits int) (matchKind, int) {
	if diff := (existing ^ key) & masks32[min(existingBits, keyBits)]; diff != 0 {
		return bitsDoNotMatch, bits.LeadingZeros32(diff)
	}
	return matchByLength(existingBits, keyBits)
}

func matchUint128(existing uint128.Uint128, existingBits int, key uint128.Uint128, keyBits int) (matchKind, int) {
	if diff := existing.Xor(key).And(masks128[min(existingBits, keyBits)]); !diff.IsZero() {
		return bitsDoNotMatch, diff.LeadingZeros()
	}
	return matchByLength(existingBits, keyBits)
}

func compareUint32(a uint32, aBits int, b uint32, bBits int) int {
	if diff := (a ^ b) & masks32[min(aBits, bBits)]; diff != 0 {
		if a&nextBits32[bits.LeadingZeros32(diff)] != 0 {
			return 1
		}
		return -1
	}
	switch {
	case aBits == bBits:
		return 0
	case aBits < bBits:
		if b&nextBits32[aBits] != 0 {
			return -1
		}
		return 1
	default:
		if a&nextBits32[bBits] != 0 {
			return 1
		}
		return -1
	}
}

func compareUint128(a uint128.Uint128, aBits int, b uint128.Uint128, bBits int) int {
	if diff := a.Xor(b).And(masks128[min(aBits, bBits)]); !diff.IsZero() {
		if !a.And(nextBits128[diff.LeadingZeros()]).IsZero() {
			return 1
		}
		return -1
	}
	switch {
	case aBits == bBits:
		return 0
	case aBits < bBits:
		if !b.And(nextBits128[aBits]).IsZero() {
			return -1
		}
		return 1
	default:
		if !a.And(nextBits128[bBits]).IsZero() {
			return 1
		}
		return -1
	}
}
