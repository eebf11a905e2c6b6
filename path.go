// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"strconv"
	"strings"
)

// Path is a list of trie nodes, each contained by the previous one, such as
// the added nodes containing a key from the largest block down.
//
// A path is a snapshot: it does not change when the trie does.
type Path[E Key[E], V any] struct {
	root, leaf *PathNode[E, V]
}

func newPath[E Key[E], V any](nodes []*TrieNode[E, V]) *Path[E, V] {
	path := &Path[E, V]{}
	for i, node := range nodes {
		next := &PathNode[E, V]{
			key:   node.key,
			value: node.value,
			added: node.added,
			size:  len(nodes) - i,
		}
		if path.leaf == nil {
			path.root = next
		} else {
			path.leaf.next = next
			next.previous = path.leaf
		}
		path.leaf = next
	}
	return path
}

// Root returns the first node, the largest block.
func (p *Path[E, V]) Root() *PathNode[E, V] {
	if p == nil {
		return nil
	}
	return p.root
}

// Leaf returns the last node, the most specific block.
func (p *Path[E, V]) Leaf() *PathNode[E, V] {
	if p == nil {
		return nil
	}
	return p.leaf
}

// Size returns the number of added nodes in the path.
func (p *Path[E, V]) Size() int {
	return p.Root().Size()
}

// Keys returns the keys of the path from the root down.
func (p *Path[E, V]) Keys() []E {
	var keys []E
	for next := p.Root(); next != nil; next = next.next {
		keys = append(keys, next.key)
	}
	return keys
}

func (p *Path[E, V]) String() string {
	return p.ListString(true, true)
}

// ListString renders the path with one node per line.
func (p *Path[E, V]) ListString(withNonAddedKeys, withSizes bool) string {
	builder := strings.Builder{}
	builder.WriteByte('\n')
	ind := indents{}
	next := p.Root()
	if next == nil {
		builder.WriteString(nilString())
		builder.WriteByte('\n')
		return builder.String()
	}
	for ; next != nil; next = next.next {
		builder.WriteString(ind.nodeIndent)
		if withNonAddedKeys || next.added {
			builder.WriteString(nodeString[E, V](next))
			if withSizes {
				builder.WriteString(" (")
				builder.WriteString(strconv.Itoa(next.size))
				builder.WriteByte(')')
			}
		} else {
			builder.WriteString(nonAddedNodeCircle)
		}
		builder.WriteByte('\n')
		ind.nodeIndent = ind.subNodeInd + rightElbow
		ind.subNodeInd += belowElbows
	}
	return builder.String()
}

// PathNode is an element of a Path.
type PathNode[E Key[E], V any] struct {
	previous, next *PathNode[E, V]

	key   E
	value V
	added bool

	// added nodes from this one to the end of the path
	size int
}

func (n *PathNode[E, V]) Next() *PathNode[E, V] {
	if n == nil {
		return nil
	}
	return n.next
}

func (n *PathNode[E, V]) Previous() *PathNode[E, V] {
	if n == nil {
		return nil
	}
	return n.previous
}

func (n *PathNode[E, V]) Key() (key E) {
	if n != nil {
		key = n.key
	}
	return
}

func (n *PathNode[E, V]) Value() (value V) {
	if n != nil {
		value = n.value
	}
	return
}

func (n *PathNode[E, V]) IsAdded() bool {
	return n != nil && n.added
}

// Size returns the number of added nodes from this one to the end of the path.
func (n *PathNode[E, V]) Size() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *PathNode[E, V]) String() string {
	if n == nil {
		return nilString()
	}
	return nodeString[E, V](n)
}
