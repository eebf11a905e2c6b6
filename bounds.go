// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"strings"
)

// Bounds restricts the keys visible through a view to a range of the trie's
// natural order. Either end can be open. Bounds are immutable.
type Bounds[E Key[E]] struct {
	lower, upper                   E
	hasLower, hasUpper             bool
	lowerInclusive, upperInclusive bool

	compare func(a, b E) int
}

// newBounds builds bounds for the given ends. An inclusive lower bound at the
// lowest address, or inclusive upper bound at the highest, excludes nothing
// and is dropped.
func newBounds[E Key[E]](
	compare func(a, b E) int,
	lower E, hasLower, lowerInclusive bool,
	upper E, hasUpper, upperInclusive bool,
) *Bounds[E] {
	if hasLower && lowerInclusive && lower.IsZero() {
		hasLower = false
	}
	if hasUpper && upperInclusive && upper.IsMax() {
		hasUpper = false
	}
	b := &Bounds[E]{compare: compare}
	if hasLower {
		b.lower, b.hasLower, b.lowerInclusive = lower, true, lowerInclusive
	}
	if hasUpper {
		b.upper, b.hasUpper, b.upperInclusive = upper, true, upperInclusive
	}
	return b
}

// LowerBound returns the lower bound and whether there is one.
func (b *Bounds[E]) LowerBound() (E, bool) {
	if b == nil {
		var zero E
		return zero, false
	}
	return b.lower, b.hasLower
}

// UpperBound returns the upper bound and whether there is one.
func (b *Bounds[E]) UpperBound() (E, bool) {
	if b == nil {
		var zero E
		return zero, false
	}
	return b.upper, b.hasUpper
}

func (b *Bounds[E]) IsLowerInclusive() bool {
	return b != nil && b.lowerInclusive
}

func (b *Bounds[E]) IsUpperInclusive() bool {
	return b != nil && b.upperInclusive
}

// IsUnbounded reports whether the bounds exclude nothing.
func (b *Bounds[E]) IsUnbounded() bool {
	return b == nil || (!b.hasLower && !b.hasUpper)
}

// isBelowLower reports whether key falls before the range.
func (b *Bounds[E]) isBelowLower(key E) bool {
	if b == nil || !b.hasLower {
		return false
	}
	cmp := b.compare(key, b.lower)
	return cmp < 0 || (cmp == 0 && !b.lowerInclusive)
}

// isAboveUpper reports whether key falls after the range.
func (b *Bounds[E]) isAboveUpper(key E) bool {
	if b == nil || !b.hasUpper {
		return false
	}
	cmp := b.compare(key, b.upper)
	return cmp > 0 || (cmp == 0 && !b.upperInclusive)
}

// IsInBounds reports whether key falls within the range.
func (b *Bounds[E]) IsInBounds(key E) bool {
	return !b.isBelowLower(key) && !b.isAboveUpper(key)
}

// isInClosedRange ignores whether the ends are inclusive.
func (b *Bounds[E]) isInClosedRange(key E) bool {
	if b == nil {
		return true
	}
	if b.hasLower && b.compare(key, b.lower) < 0 {
		return false
	}
	return !b.hasUpper || b.compare(key, b.upper) <= 0
}

// checkWithin accepts a new end for a narrower range. An exclusive end may
// coincide with an end of the current range, an inclusive one must lie
// inside it.
func (b *Bounds[E]) checkWithin(key E, inclusive bool) error {
	if inclusive {
		if !b.IsInBounds(key) {
			return outOfRange(key, "bound outside %s", b)
		}
	} else if !b.isInClosedRange(key) {
		return outOfRange(key, "bound outside %s", b)
	}
	return nil
}

// restrict returns the intersection of these bounds with the given ends,
// failing with ErrOutOfRange when an end lies outside the current range.
func (b *Bounds[E]) restrict(
	compare func(a, b E) int,
	lower E, hasLower, lowerInclusive bool,
	upper E, hasUpper, upperInclusive bool,
) (*Bounds[E], error) {
	if hasLower && hasUpper {
		if cmp := compare(lower, upper); cmp > 0 {
			return nil, outOfRange(lower, "lower bound above upper bound %s", upper)
		}
	}
	if hasLower {
		if err := b.checkWithin(lower, lowerInclusive); err != nil {
			return nil, err
		}
	} else if b != nil {
		lower, hasLower, lowerInclusive = b.lower, b.hasLower, b.lowerInclusive
	}
	if hasUpper {
		if err := b.checkWithin(upper, upperInclusive); err != nil {
			return nil, err
		}
	} else if b != nil {
		upper, hasUpper, upperInclusive = b.upper, b.hasUpper, b.upperInclusive
	}
	return newBounds(compare, lower, hasLower, lowerInclusive, upper, hasUpper, upperInclusive), nil
}

func (b *Bounds[E]) String() string {
	if b.IsUnbounded() {
		return "(-∞, +∞)"
	}
	builder := strings.Builder{}
	if b.hasLower {
		if b.lowerInclusive {
			builder.WriteByte('[')
		} else {
			builder.WriteByte('(')
		}
		builder.WriteString(b.lower.String())
	} else {
		builder.WriteString("(-∞")
	}
	builder.WriteString(", ")
	if b.hasUpper {
		builder.WriteString(b.upper.String())
		if b.upperInclusive {
			builder.WriteByte(']')
		} else {
			builder.WriteByte(')')
		}
	} else {
		builder.WriteString("+∞)")
	}
	return builder.String()
}
