// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minParallelChunk is the size below which a range is not split further.
const minParallelChunk = 64

// ParallelForEach calls fn for every added node of the sub-tree, splitting
// the traversal over up to GOMAXPROCS goroutines. Nodes of one chunk are
// visited in natural order, chunks run in no particular order. The first
// error cancels the remaining chunks and is returned.
//
// The trie must not be modified until ParallelForEach returns.
func (n *TrieNode[E, V]) ParallelForEach(ctx context.Context, fn func(context.Context, *TrieNode[E, V]) error) error {
	return parallelForEach(ctx, n.Spliterator(true), fn)
}

func parallelForEach[E Key[E], V any](
	ctx context.Context,
	root *Spliterator[E, V],
	fn func(context.Context, *TrieNode[E, V]) error,
) error {
	chunks := splitChunks(root, max(root.EstimateSize()/(4*runtime.GOMAXPROCS(0)), minParallelChunk))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, chunk := range chunks {
		g.Go(func() error {
			var err error
			for err == nil && chunk.TryAdvance(func(node *TrieNode[E, V]) {
				if err = ctx.Err(); err == nil {
					err = fn(ctx, node)
				}
			}) {
			}
			return err
		})
	}
	return g.Wait()
}

// splitChunks splits the spliterator until every part is at most chunkSize
// or cannot be split further.
func splitChunks[E Key[E], V any](s *Spliterator[E, V], chunkSize int) []*Spliterator[E, V] {
	var chunks []*Spliterator[E, V]
	stack := []*Spliterator[E, V]{s}
	for len(stack) > 0 {
		last := len(stack) - 1
		next := stack[last]
		stack = stack[:last]
		if next.EstimateSize() > chunkSize {
			if prefix := next.TrySplit(); prefix != nil {
				stack = append(stack, next, prefix)
				continue
			}
		}
		chunks = append(chunks, next)
	}
	return chunks
}
