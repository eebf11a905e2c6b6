// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidKey is reported for keys that are neither a single address
	// nor a prefix block, and for strings that cannot be parsed as either.
	ErrInvalidKey = errors.New("key must be a single address or a prefix block")

	// ErrFamilyMismatch is reported when a key's bit length or segment layout
	// differs from the address family established by the trie root.
	ErrFamilyMismatch = errors.New("key does not match the address family of the trie")

	// ErrOutOfRange is returned by bounded views for keys outside the view's
	// range and for range restrictions that would widen the current range.
	ErrOutOfRange = errors.New("key is outside the range of the view")

	// ErrConcurrentModification is the panic value used when an iterator,
	// spliterator or remap observes a structural change it did not make.
	ErrConcurrentModification = errors.New("trie was modified concurrently")
)

// KeyError records the key that caused a failure.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func newKeyError(key fmt.Stringer, err error) *KeyError {
	return &KeyError{Key: key.String(), Err: err}
}

func outOfRange(key fmt.Stringer, format string, args ...any) error {
	return errors.Wrapf(newKeyError(key, ErrOutOfRange), format, args...)
}
