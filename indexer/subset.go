// Package indexer implements the rectangular ArraySubset and the
// polymorphic Indexer abstraction that every read/write path in the
// engine is built on top of.
package indexer

import (
	"fmt"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// ArraySubset is a rectangular N-dimensional box: every element at
// Start[i] <= x[i] < Start[i]+Shape[i] for each axis i.
type ArraySubset struct {
	Start []uint64
	Shape []uint64
}

// NewArraySubset validates that start and shape have matching
// dimensionality and returns the subset.
func NewArraySubset(start, shape []uint64) (ArraySubset, error) {
	if len(start) != len(shape) {
		return ArraySubset{}, fmt.Errorf("%w: start has %d dims, shape has %d", zarrerr.ErrInvalidArraySubset, len(start), len(shape))
	}
	return ArraySubset{Start: append([]uint64(nil), start...), Shape: append([]uint64(nil), shape...)}, nil
}

// Dimensionality returns the number of axes.
func (s ArraySubset) Dimensionality() int { return len(s.Shape) }

// NumElements returns the product of Shape, 0 if any axis is 0.
func (s ArraySubset) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s.Shape {
		if d == 0 {
			return 0
		}
		n *= d
	}
	return n
}

// IsEmpty reports whether the subset spans zero elements.
func (s ArraySubset) IsEmpty() bool {
	for _, d := range s.Shape {
		if d == 0 {
			return true
		}
	}
	return false
}

// EndExc returns the exclusive end index on each axis: Start[i]+Shape[i].
func (s ArraySubset) EndExc() []uint64 {
	end := make([]uint64, len(s.Start))
	for i := range s.Start {
		end[i] = s.Start[i] + s.Shape[i]
	}
	return end
}

// EndInc returns the inclusive end index on each axis, or (nil, false) if
// the subset is empty (spec.md: "end_inc() returns None for empty subsets").
func (s ArraySubset) EndInc() ([]uint64, bool) {
	if s.IsEmpty() {
		return nil, false
	}
	end := make([]uint64, len(s.Start))
	for i := range s.Start {
		end[i] = s.Start[i] + s.Shape[i] - 1
	}
	return end, true
}

// Overlap returns the dimension-wise intersection [max(start), min(end_exc))
// of s and other. It fails only on dimensionality mismatch; a non-overlapping
// pair produces an empty subset (some axis shape 0).
func (s ArraySubset) Overlap(other ArraySubset) (ArraySubset, error) {
	if len(s.Start) != len(other.Start) {
		return ArraySubset{}, fmt.Errorf("%w: dimensionality mismatch %d vs %d", zarrerr.ErrInvalidArraySubset, len(s.Start), len(other.Start))
	}
	n := len(s.Start)
	start := make([]uint64, n)
	shape := make([]uint64, n)
	sEnd := s.EndExc()
	oEnd := other.EndExc()
	for i := 0; i < n; i++ {
		lo := s.Start[i]
		if other.Start[i] > lo {
			lo = other.Start[i]
		}
		hi := sEnd[i]
		if oEnd[i] < hi {
			hi = oEnd[i]
		}
		if hi <= lo {
			start[i] = lo
			shape[i] = 0
			continue
		}
		start[i] = lo
		shape[i] = hi - lo
	}
	return ArraySubset{Start: start, Shape: shape}, nil
}

// RelativeTo subtracts origin from Start, producing a subset expressed in
// origin-relative coordinates. It fails if any Start[i] < origin[i].
func (s ArraySubset) RelativeTo(origin []uint64) (ArraySubset, error) {
	if len(origin) != len(s.Start) {
		return ArraySubset{}, fmt.Errorf("%w: origin has %d dims, subset has %d", zarrerr.ErrInvalidArraySubset, len(origin), len(s.Start))
	}
	start := make([]uint64, len(s.Start))
	for i := range s.Start {
		if s.Start[i] < origin[i] {
			return ArraySubset{}, fmt.Errorf("%w: start[%d]=%d < origin[%d]=%d", zarrerr.ErrInvalidArraySubset, i, s.Start[i], i, origin[i])
		}
		start[i] = s.Start[i] - origin[i]
	}
	return ArraySubset{Start: start, Shape: append([]uint64(nil), s.Shape...)}, nil
}

// Indices calls fn for every index tuple in the subset, in C order. fn must
// not retain the slice it is given.
func (s ArraySubset) Indices(fn func(idx []uint64)) {
	if s.IsEmpty() {
		return
	}
	idx := make([]uint64, len(s.Start))
	copy(idx, s.Start)
	end := s.EndExc()
	n := len(idx)
	for {
		fn(idx)
		i := n - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < end[i] {
				break
			}
			idx[i] = s.Start[i]
		}
		if i < 0 {
			return
		}
	}
}

// LinearisedIndices calls fn with the flat C-order offset of every element
// of the subset within an array of the given shape.
func (s ArraySubset) LinearisedIndices(arrayShape []uint64, fn func(linear uint64)) {
	strides := cStrides(arrayShape)
	s.Indices(func(idx []uint64) {
		var off uint64
		for i, v := range idx {
			off += v * strides[i]
		}
		fn(off)
	})
}

// ContiguousRun is a maximal axis-aligned run of consecutive elements: the
// element at Start, and the following Length-1 elements are contiguous in
// C-order within the owning array.
type ContiguousRun struct {
	Start  []uint64
	Length uint64
}

// ContiguousIndices coalesces the subset into the minimal set of
// axis-aligned runs of consecutive elements, given the shape of the array
// the subset lives in (needed to know whether a run can continue onto the
// next row). The trailing axes along which s spans the full array width
// collapse, together with the axis just before them, into one run.
func (s ArraySubset) ContiguousIndices(arrayShape []uint64) []ContiguousRun {
	if s.IsEmpty() {
		return nil
	}
	n := len(s.Shape)
	if n != len(arrayShape) {
		return nil
	}

	// runAxis is the outermost axis a single run spans: every axis after it
	// spans the full array width with Start==0, so one run covers
	// s.Shape[runAxis] consecutive rows of everything from runAxis onward.
	runAxis := n
	for i := n - 1; i >= 0; i-- {
		if s.Start[i] == 0 && s.Shape[i] == arrayShape[i] {
			runAxis = i
			continue
		}
		break
	}
	if runAxis > 0 {
		runAxis--
	}

	runLen := uint64(1)
	for i := runAxis; i < n; i++ {
		runLen *= s.Shape[i]
	}
	if runAxis == n {
		runLen = 1
	}

	outer, err := NewArraySubset(s.Start[:runAxis], s.Shape[:runAxis])
	if err != nil {
		return nil
	}
	var runs []ContiguousRun
	outer.Indices(func(idx []uint64) {
		start := make([]uint64, n)
		copy(start, idx)
		for i := runAxis; i < n; i++ {
			start[i] = s.Start[i]
		}
		runs = append(runs, ContiguousRun{Start: start, Length: runLen})
	})
	if runAxis == n {
		runs = []ContiguousRun{{Start: append([]uint64(nil), s.Start...), Length: runLen}}
	}
	return runs
}

// ContiguousLinearisedRun is the flat-offset form of ContiguousRun, the
// basis of every zero-copy copy loop in the array core.
type ContiguousLinearisedRun struct {
	LinearStart uint64
	Length      uint64
}

// ContiguousLinearisedIndices is ContiguousIndices expressed as flat C-order
// offsets into an array of arrayShape.
func (s ArraySubset) ContiguousLinearisedIndices(arrayShape []uint64) []ContiguousLinearisedRun {
	runs := s.ContiguousIndices(arrayShape)
	strides := cStrides(arrayShape)
	out := make([]ContiguousLinearisedRun, len(runs))
	for i, r := range runs {
		var off uint64
		for d, v := range r.Start {
			off += v * strides[d]
		}
		out[i] = ContiguousLinearisedRun{LinearStart: off, Length: r.Length}
	}
	return out
}

// CStrides returns the C-order strides for a shape: the element count to
// skip to advance one step along each axis.
func CStrides(shape []uint64) []uint64 { return cStrides(shape) }

func cStrides(shape []uint64) []uint64 {
	s := make([]uint64, len(shape))
	stride := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}
