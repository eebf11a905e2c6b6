// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"github.com/pkg/errors"
	"lukechampine.com/uint128"
)

// changeTracker is shared by every node of one trie and by every view of it.
// The version only ever grows; Add64 panics rather than wrapping.
type changeTracker struct {
	version uint128.Uint128
}

func (c *changeTracker) changed() {
	if c != nil {
		c.version = c.version.Add64(1)
	}
}

func (c *changeTracker) current() uint128.Uint128 {
	if c == nil {
		return uint128.Zero
	}
	return c.version
}

func (c *changeTracker) changedSince(version uint128.Uint128) bool {
	return !c.current().Equals(version)
}

// checkUnchanged panics if the trie moved on since the given version was taken.
func (c *changeTracker) checkUnchanged(version uint128.Uint128) {
	if c.changedSince(version) {
		panic(errors.Wrapf(ErrConcurrentModification, "expected version %s, found %s", version, c.current()))
	}
}
