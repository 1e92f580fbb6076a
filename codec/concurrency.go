package codec

// CodecOptions carries the desired degree of parallelism for one array
// operation (spec.md §5).
type CodecOptions struct {
	// ConcurrentTarget is the overall degree of parallelism the caller
	// would like this operation to use.
	ConcurrentTarget int
}

// DefaultCodecOptions returns a CodecOptions requesting no parallelism
// beyond the caller's own goroutine.
func DefaultCodecOptions() CodecOptions { return CodecOptions{ConcurrentTarget: 1} }

// WithTarget returns a copy of o with a different ConcurrentTarget.
func (o CodecOptions) WithTarget(n int) CodecOptions {
	o.ConcurrentTarget = n
	return o
}

func clamp(n, lo, hi int) int {
	if lo > 0 && n < lo {
		n = lo
	}
	if hi > 0 && n > hi {
		n = hi
	}
	if n < 1 {
		n = 1
	}
	return n
}

// CalcConcurrencyOuterInner computes (outer, inner) such that
// outer*inner is close to target, subject to each level's recommended
// bound (spec.md §5): outer is bounded by outerRec, inner by innerRec.
// Nested operations pass the inner limit down via a modified CodecOptions.
func CalcConcurrencyOuterInner(target int, outerRec, innerRec RecommendedConcurrency) (outer, inner int) {
	if target < 1 {
		target = 1
	}
	outer = clamp(target, outerRec.Min, outerRec.Max)
	remaining := target / outer
	inner = clamp(remaining, innerRec.Min, innerRec.Max)
	return outer, inner
}

// ConcurrencyChunksAndCodec is CalcConcurrencyOuterInner specialised for
// the array core's "chunks in this subset" (outer) vs "codec internal
// parallelism" (inner) split: the outer level is additionally capped by
// the number of chunks actually being visited, since there is no benefit
// to more outer workers than work items.
func ConcurrencyChunksAndCodec(target, numChunks int, codecRecommended RecommendedConcurrency) (outer, inner int) {
	outerRec := RecommendedConcurrency{Min: 1, Max: numChunks}
	if numChunks < 1 {
		outerRec.Max = 1
	}
	return CalcConcurrencyOuterInner(target, outerRec, codecRecommended)
}
