package chunkgrid

import (
	"fmt"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// Regular tiles the array with a constant chunk shape on every axis; the
// final chunk along a ragged edge clips to the remaining array extent.
type Regular struct {
	arrayShape []uint64
	chunkShape []uint64
}

// NewRegular builds a Regular grid. Every element of chunkShape must be >= 1.
func NewRegular(arrayShape, chunkShape []uint64) (*Regular, error) {
	if err := checkDims(len(chunkShape), len(arrayShape)); err != nil {
		return nil, err
	}
	for i, c := range chunkShape {
		if c == 0 {
			return nil, fmt.Errorf("%w: chunk shape axis %d is zero", zarrerr.ErrInvalidChunkGridIndices, i)
		}
	}
	return &Regular{
		arrayShape: append([]uint64(nil), arrayShape...),
		chunkShape: append([]uint64(nil), chunkShape...),
	}, nil
}

func (r *Regular) ArrayShape() []uint64 { return append([]uint64(nil), r.arrayShape...) }

func (r *Regular) GridShape() []uint64 {
	grid := make([]uint64, len(r.arrayShape))
	for i := range r.arrayShape {
		if axisUnlimited(r.arrayShape, i) {
			grid[i] = 0
			continue
		}
		grid[i] = (r.arrayShape[i] + r.chunkShape[i] - 1) / r.chunkShape[i]
	}
	return grid
}

func (r *Regular) ChunkOrigin(chunkIndices []uint64) ([]uint64, error) {
	if err := checkDims(len(chunkIndices), len(r.arrayShape)); err != nil {
		return nil, err
	}
	origin := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		origin[i] = c * r.chunkShape[i]
	}
	return origin, nil
}

func (r *Regular) ChunkShape(chunkIndices []uint64) ([]uint64, error) {
	origin, err := r.ChunkOrigin(chunkIndices)
	if err != nil {
		return nil, err
	}
	shape := make([]uint64, len(origin))
	for i := range origin {
		shape[i] = r.chunkShape[i]
		if !axisUnlimited(r.arrayShape, i) {
			if origin[i] >= r.arrayShape[i] {
				return nil, fmt.Errorf("%w: chunk index %d out of bounds on axis %d", zarrerr.ErrInvalidChunkGridIndices, chunkIndices[i], i)
			}
			if remaining := r.arrayShape[i] - origin[i]; remaining < shape[i] {
				shape[i] = remaining
			}
		}
	}
	return shape, nil
}

func (r *Regular) ChunkIndices(a []uint64) ([]uint64, error) {
	if err := checkDims(len(a), len(r.arrayShape)); err != nil {
		return nil, err
	}
	idx := make([]uint64, len(a))
	for i, v := range a {
		if !axisUnlimited(r.arrayShape, i) && v >= r.arrayShape[i] {
			return nil, fmt.Errorf("%w: index %d out of bounds on axis %d (size %d)", zarrerr.ErrInvalidIndexer, v, i, r.arrayShape[i])
		}
		idx[i] = v / r.chunkShape[i]
	}
	return idx, nil
}

func (r *Regular) ChunkElementIndices(a []uint64) ([]uint64, error) {
	chunkIdx, err := r.ChunkIndices(a)
	if err != nil {
		return nil, err
	}
	origin, err := r.ChunkOrigin(chunkIdx)
	if err != nil {
		return nil, err
	}
	rel := make([]uint64, len(a))
	for i := range a {
		rel[i] = a[i] - origin[i]
	}
	return rel, nil
}
