package chunkgrid

import (
	"fmt"
	"sort"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// axisTable is the cumulative-offset representation shared by Rectangular's
// Varying axes and Rectilinear's expanded RLE axes: offsets has len(sizes)+1
// entries, offsets[0]=0, offsets[i+1]=offsets[i]+sizes[i].
type axisTable struct {
	sizes   []uint64
	offsets []uint64
}

func newAxisTable(sizes []uint64) axisTable {
	offsets := make([]uint64, len(sizes)+1)
	for i, s := range sizes {
		offsets[i+1] = offsets[i] + s
	}
	return axisTable{sizes: sizes, offsets: offsets}
}

// fixedAxisTable expands a constant chunk size across an axis of the given
// array length, clipping the final chunk to the remaining extent (the same
// ragged-edge rule Regular uses).
func fixedAxisTable(chunkSize, arrayLen uint64) axisTable {
	if arrayLen == 0 {
		return axisTable{offsets: []uint64{0}}
	}
	count := (arrayLen + chunkSize - 1) / chunkSize
	sizes := make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		remaining := arrayLen - i*chunkSize
		if remaining > chunkSize {
			sizes[i] = chunkSize
		} else {
			sizes[i] = remaining
		}
	}
	return newAxisTable(sizes)
}

func (t axisTable) count() uint64 { return uint64(len(t.sizes)) }

func (t axisTable) arrayLen() uint64 {
	if len(t.offsets) == 0 {
		return 0
	}
	return t.offsets[len(t.offsets)-1]
}

// chunkIndex does the spec's "partition_point" binary search: the largest i
// such that offsets[i] <= a, i.e. the chunk containing array index a.
func (t axisTable) chunkIndex(a uint64) (uint64, error) {
	if a >= t.arrayLen() {
		return 0, fmt.Errorf("%w: index %d out of bounds (axis length %d)", zarrerr.ErrInvalidIndexer, a, t.arrayLen())
	}
	// sort.Search finds the first index for which the predicate is true;
	// we want the first offset strictly greater than a, then step back one.
	i := sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > a })
	return uint64(i - 1), nil
}

func (t axisTable) origin(chunkIdx uint64) (uint64, error) {
	if chunkIdx >= t.count() {
		return 0, fmt.Errorf("%w: chunk index %d out of bounds (count %d)", zarrerr.ErrInvalidChunkGridIndices, chunkIdx, t.count())
	}
	return t.offsets[chunkIdx], nil
}

func (t axisTable) size(chunkIdx uint64) (uint64, error) {
	if chunkIdx >= t.count() {
		return 0, fmt.Errorf("%w: chunk index %d out of bounds (count %d)", zarrerr.ErrInvalidChunkGridIndices, chunkIdx, t.count())
	}
	return t.sizes[chunkIdx], nil
}
