// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"net/netip"
	"strings"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"
)

// Prefix is an IPv4 or IPv6 trie key: either a single address or a CIDR
// prefix block whose host bits are all zero. It is comparable and can be used
// as a map key.
//
// IPv4 keys are made of four 8-bit segments and IPv6 keys of eight 16-bit
// segments.
type Prefix struct {
	addr netip.Addr
	bits int // -1 for a single address
}

var (
	_ Key[Prefix] = Prefix{}
	_ Uint32Key   = Prefix{}
	_ Uint128Key  = Prefix{}
)

// AddrKey returns the key for a single address.
func AddrKey(addr netip.Addr) Prefix {
	return Prefix{addr: addr, bits: -1}
}

// PrefixFrom returns the key for a prefix block. A prefix covering the whole
// address becomes a single address key. Prefixes with host bits set are
// rejected with ErrInvalidKey.
func PrefixFrom(p netip.Prefix) (Prefix, error) {
	if !p.IsValid() {
		return Prefix{}, errors.Wrapf(ErrInvalidKey, "invalid prefix %s", p)
	}
	if p.Masked() != p {
		return Prefix{}, &KeyError{Key: p.String(), Err: errors.Wrap(ErrInvalidKey, "host bits set")}
	}
	if p.Bits() == p.Addr().BitLen() {
		return AddrKey(p.Addr()), nil
	}
	return Prefix{addr: p.Addr(), bits: p.Bits()}, nil
}

// ParsePrefix parses an address such as "10.1.2.3" or a prefix block such
// as "10.0.0.0/8" or "2001:db8::/32".
func ParsePrefix(s string) (Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.IndexByte(s, '/') < 0 {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return Prefix{}, errors.Wrapf(ErrInvalidKey, "parse %q: %v", s, err)
		}
		return AddrKey(addr), nil
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Prefix{}, errors.Wrapf(ErrInvalidKey, "parse %q: %v", s, err)
	}
	return PrefixFrom(p)
}

// MustParsePrefix is like ParsePrefix but panics on error.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Addr returns the address, which for a prefix block is its lowest address.
func (p Prefix) Addr() netip.Addr {
	return p.addr
}

// IsValid reports whether the key holds an address.
func (p Prefix) IsValid() bool {
	return p.addr.IsValid()
}

// NetipPrefix converts the key to a netip.Prefix, using the full bit length
// for single addresses.
func (p Prefix) NetipPrefix() netip.Prefix {
	return netip.PrefixFrom(p.addr, keyPrefixLen(p))
}

// Contains reports whether every address of other belongs to p.
func (p Prefix) Contains(other Prefix) bool {
	if p.BitCount() != other.BitCount() {
		return false
	}
	pl, ol := keyPrefixLen(p), keyPrefixLen(other)
	if ol < pl {
		return false
	}
	return p.NetipPrefix().Contains(other.addr)
}

func (p Prefix) String() string {
	if !p.addr.IsValid() {
		return "invalid Prefix"
	}
	if p.bits < 0 {
		return p.addr.String()
	}
	return netip.PrefixFrom(p.addr, p.bits).String()
}

func (p Prefix) BitCount() int {
	return p.addr.BitLen()
}

func (p Prefix) PrefixLen() (int, bool) {
	return p.bits, p.bits >= 0
}

func (p Prefix) IsMultiple() bool {
	return p.bits >= 0 && p.bits < p.addr.BitLen()
}

// IsSinglePrefixBlock is true for every prefixed key, host bits being zero
// by construction.
func (p Prefix) IsSinglePrefixBlock() bool {
	return p.bits >= 0
}

func (p Prefix) WithoutPrefixLen() Prefix {
	return Prefix{addr: p.addr, bits: -1}
}

func (p Prefix) ToPrefixBlockLen(prefixLen int) Prefix {
	if prefixLen >= p.addr.BitLen() {
		return p.WithoutPrefixLen()
	}
	masked, err := p.addr.Prefix(max(prefixLen, 0))
	if err != nil {
		panic(newKeyError(p, err))
	}
	return Prefix{addr: masked.Addr(), bits: masked.Bits()}
}

func (p Prefix) SegmentCount() int {
	if p.addr.Is4() {
		return 4
	}
	return 8
}

func (p Prefix) BitsPerSegment() int {
	if p.addr.Is4() {
		return 8
	}
	return 16
}

func (p Prefix) SegmentValue(index int) uint32 {
	if p.addr.Is4() {
		return uint32(p.addr.As4()[index])
	}
	b := p.addr.As16()
	return uint32(b[2*index])<<8 | uint32(b[2*index+1])
}

func (p Prefix) IsOneBit(index int) bool {
	var b byte
	if p.addr.Is4() {
		b = p.addr.As4()[index>>3]
	} else {
		b = p.addr.As16()[index>>3]
	}
	return b&(0x80>>(index&7)) != 0
}

// IsZero reports whether the key is the single all-zeros address.
func (p Prefix) IsZero() bool {
	return p.bits < 0 && p.addr.IsValid() && p.addr.Prev() == netip.Addr{}
}

// IsMax reports whether the key is the single all-ones address.
func (p Prefix) IsMax() bool {
	return p.bits < 0 && p.addr.IsValid() && p.addr.Next() == netip.Addr{}
}

func (p Prefix) Uint32Value() uint32 {
	b := p.addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (p Prefix) Uint128Value() uint128.Uint128 {
	b := p.addr.As16()
	return uint128.FromBytesBE(b[:])
}
