// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	nonAddedNodeCircle = "○"
	addedNodeCircle    = "●"

	leftElbow       = "├─"
	inBetweenElbows = "│ "
	rightElbow      = "└─"
	belowElbows     = "  "
)

type indents struct {
	nodeIndent, subNodeInd string
}

func nilString() string {
	return "<nil>"
}

type printableNode[E any, V any] interface {
	IsAdded() bool
	Key() E
	Value() V
}

// nodeString shows a filled circle for added nodes and a hollow one for
// junctions, followed by the key and the value when there is one.
func nodeString[E Key[E], V any](node printableNode[E, V]) string {
	builder := strings.Builder{}
	if node.IsAdded() {
		builder.WriteString(addedNodeCircle)
	} else {
		builder.WriteString(nonAddedNodeCircle)
	}
	builder.WriteByte(' ')
	builder.WriteString(node.Key().String())
	if node.IsAdded() {
		if _, ok := any(node.Value()).(EmptyValue); !ok {
			builder.WriteString(" = ")
			fmt.Fprint(&builder, node.Value())
		}
	}
	return builder.String()
}

// TreeString renders the sub-tree, one node per line, lower sub-nodes first.
// Without withNonAddedKeys junctions show as a bare hollow circle; withSizes
// appends the number of added nodes of each sub-tree.
func (n *TrieNode[E, V]) TreeString(withNonAddedKeys, withSizes bool) string {
	if n == nil {
		return "\n" + nilString()
	}
	builder := strings.Builder{}
	builder.WriteByte('\n')
	n.printTree(&builder, indents{}, withNonAddedKeys, withSizes)
	return builder.String()
}

func (n *TrieNode[E, V]) printTree(builder *strings.Builder, start indents, withNonAddedKeys, withSizes bool) {
	iterator := n.ContainingFirstAllNodeIterator(true)
	for next := iterator.Next(); next != nil; next = iterator.Next() {
		ind := start
		if cached := iterator.GetCached(); cached != nil {
			ind = cached.(indents)
		}
		builder.WriteString(ind.nodeIndent)
		if withNonAddedKeys || next.added {
			builder.WriteString(next.String())
		} else {
			builder.WriteString(nonAddedNodeCircle)
		}
		if withSizes {
			builder.WriteString(" (")
			builder.WriteString(strconv.Itoa(next.size))
			builder.WriteByte(')')
		}
		builder.WriteByte('\n')

		last := indents{
			nodeIndent: ind.subNodeInd + rightElbow,
			subNodeInd: ind.subNodeInd + belowElbows,
		}
		if next.upper != nil {
			if next.lower != nil {
				iterator.CacheWithLowerSubNode(indents{
					nodeIndent: ind.subNodeInd + leftElbow,
					subNodeInd: ind.subNodeInd + inBetweenElbows,
				})
			}
			iterator.CacheWithUpperSubNode(last)
		} else {
			iterator.CacheWithLowerSubNode(last)
		}
	}
}

func treesString[E Key[E], V any](withNonAddedKeys bool, roots ...*TrieNode[E, V]) string {
	builder := strings.Builder{}
	for i, root := range roots {
		ind := indents{nodeIndent: leftElbow, subNodeInd: inBetweenElbows}
		if i == len(roots)-1 {
			ind = indents{nodeIndent: rightElbow, subNodeInd: belowElbows}
		}
		builder.WriteByte('\n')
		if root == nil {
			builder.WriteString(ind.nodeIndent)
			builder.WriteString(nilString())
			builder.WriteByte('\n')
			continue
		}
		root.printTree(&builder, ind, withNonAddedKeys, true)
	}
	return builder.String()
}

type indentsNode[E Key[E], V any] struct {
	inds indents
	node *TrieNode[E, V]
}

// addedNodesTreeString renders the root and the added nodes, each added node
// placed below the nearest added node containing it, or below the root.
func addedNodesTreeString[E Key[E], V any](root *TrieNode[E, V]) string {
	if root == nil {
		return "\n" + nilString()
	}
	subNodes := make(map[*TrieNode[E, V]][]*TrieNode[E, V])
	iterator := root.ContainingFirstAllNodeIterator(true)
	for next := iterator.Next(); next != nil; next = iterator.Next() {
		holder := next
		if next != root {
			parent := iterator.GetCached().(*TrieNode[E, V])
			if next.added {
				subNodes[parent] = append(subNodes[parent], next)
			} else {
				holder = parent
			}
		}
		iterator.CacheWithLowerSubNode(holder)
		iterator.CacheWithUpperSubNode(holder)
	}

	builder := strings.Builder{}
	builder.WriteByte('\n')
	var stack []indentsNode[E, V]
	nodeIndent, subNodeIndent := "", ""
	nextNode := root
	for {
		builder.WriteString(nodeIndent)
		builder.WriteString(nextNode.String())
		builder.WriteByte('\n')

		if nextNodes := subNodes[nextNode]; len(nextNodes) > 0 {
			i := len(nextNodes) - 1
			stack = append(stack, indentsNode[E, V]{
				inds: indents{
					nodeIndent: subNodeIndent + rightElbow,
					subNodeInd: subNodeIndent + belowElbows,
				},
				node: nextNodes[i],
			})
			firstIndents := indents{
				nodeIndent: subNodeIndent + leftElbow,
				subNodeInd: subNodeIndent + inBetweenElbows,
			}
			for i--; i >= 0; i-- {
				stack = append(stack, indentsNode[E, V]{firstIndents, nextNodes[i]})
			}
		}
		stackLen := len(stack)
		if stackLen == 0 {
			break
		}
		nextItem := stack[stackLen-1]
		stack = stack[:stackLen-1]
		nextNode = nextItem.node
		nodeIndent = nextItem.inds.nodeIndent
		subNodeIndent = nextItem.inds.subNodeInd
	}
	return builder.String()
}
