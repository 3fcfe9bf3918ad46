// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package scan implements the chunked parallel prefix scan shared by the
// stages of the ingestion pipeline.
//
// A stage splits its input into contiguous chunks, summarizes each chunk
// independently and in parallel, combines the summaries with an exclusive
// scan under an associative operation, and then finishes each chunk in
// parallel knowing the combined summary of everything to its left.
package scan

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A Monoid is an associative binary operation with an identity element.
// Combine(a, b) means "a followed by b"; it need not be commutative.
type Monoid[T any] interface {
	Identity() T
	Combine(a, b T) T
}

// Exclusive returns the exclusive prefix combination of xs, so that
// prefix[i] combines xs[0:i] and prefix[0] is the identity.  It also returns
// the combination of all of xs.
func Exclusive[T any](m Monoid[T], xs []T) (prefix []T, total T) {
	prefix = make([]T, len(xs))
	acc := m.Identity()
	for i, x := range xs {
		prefix[i] = acc
		acc = m.Combine(acc, x)
	}
	return prefix, acc
}

// Sum is the additive monoid over integers.
type Sum[T ~int | ~int32 | ~int64 | ~uint32] struct{}

func (Sum[T]) Identity() T      { return 0 }
func (Sum[T]) Combine(a, b T) T { return a + b }

// Offsets returns the exclusive prefix sums of counts, and their total.
// It is the compaction step used to place per-chunk outputs.
func Offsets(counts []int) ([]int, int) { return Exclusive[int](Sum[int]{}, counts) }

// A Chunk is a half-open range [Pos, End) of input positions.
type Chunk struct {
	Pos, End int
}

// Len reports the number of positions in c.
func (c Chunk) Len() int { return c.End - c.Pos }

// Split partitions n positions into at most parts contiguous chunks of nearly
// equal size, in order. If parts < 1 it is treated as 1. Split always returns
// at least one chunk, which is empty when n == 0.
// It panics if n < 0.
func Split(n, parts int) []Chunk {
	if n < 0 {
		panic(fmt.Sprintf("scan: negative length %d", n))
	}
	parts = max(1, min(parts, n))
	out := make([]Chunk, parts)
	size, extra := n/parts, n%parts
	pos := 0
	for i := range out {
		end := pos + size
		if i < extra {
			end++
		}
		out[i] = Chunk{Pos: pos, End: end}
		pos = end
	}
	return out
}

// Run calls f(i) for each 0 ≤ i < n with at most limit calls active at once.
// If limit ≤ 0, the limit is runtime.GOMAXPROCS(0). Run reports the first
// error returned by f, if any, after all calls have finished.
//
// When n == 1 or limit == 1, the calls are made sequentially on the calling
// goroutine.
func Run(n, limit int, f func(i int) error) error {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	if n <= 1 || limit == 1 {
		for i := range n {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error { return f(i) })
	}
	return g.Wait()
}
