package chunkgrid

import (
	"fmt"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// RectangularAxis describes one axis of a Rectangular grid: either a
// constant chunk size (Fixed) or an explicit, possibly non-uniform, list of
// chunk sizes (Varying) summing to the array's extent on that axis.
type RectangularAxis struct {
	Fixed bool
	Size  uint64   // valid when Fixed
	Sizes []uint64 // valid when !Fixed
}

// FixedAxis builds a Fixed RectangularAxis.
func FixedAxis(size uint64) RectangularAxis { return RectangularAxis{Fixed: true, Size: size} }

// VaryingAxis builds a Varying RectangularAxis.
func VaryingAxis(sizes []uint64) RectangularAxis {
	return RectangularAxis{Fixed: false, Sizes: append([]uint64(nil), sizes...)}
}

// Rectangular tiles each axis independently, with either a constant chunk
// size (ragged final chunk allowed, like Regular) or an explicit per-chunk
// size list maintained as a cumulative offset table for binary-search
// lookups.
type Rectangular struct {
	arrayShape []uint64
	axes       []RectangularAxis
	tables     []axisTable
}

// NewRectangular builds a Rectangular grid. Varying axes must sum to the
// array's extent on that axis.
func NewRectangular(arrayShape []uint64, axes []RectangularAxis) (*Rectangular, error) {
	if err := checkDims(len(axes), len(arrayShape)); err != nil {
		return nil, err
	}
	tables := make([]axisTable, len(axes))
	for i, ax := range axes {
		if ax.Fixed {
			if ax.Size == 0 {
				return nil, fmt.Errorf("%w: fixed axis %d has zero chunk size", zarrerr.ErrInvalidChunkGridIndices, i)
			}
			tables[i] = fixedAxisTable(ax.Size, arrayShape[i])
			continue
		}
		var sum uint64
		for _, s := range ax.Sizes {
			if s == 0 {
				return nil, fmt.Errorf("%w: varying axis %d has a zero-size chunk", zarrerr.ErrInvalidChunkGridIndices, i)
			}
			sum += s
		}
		if sum != arrayShape[i] {
			return nil, fmt.Errorf("%w: varying axis %d sizes sum to %d, array extent is %d", zarrerr.ErrInvalidChunkGridIndices, i, sum, arrayShape[i])
		}
		tables[i] = newAxisTable(ax.Sizes)
	}
	return &Rectangular{
		arrayShape: append([]uint64(nil), arrayShape...),
		axes:       axes,
		tables:     tables,
	}, nil
}

func (r *Rectangular) ArrayShape() []uint64 { return append([]uint64(nil), r.arrayShape...) }

func (r *Rectangular) GridShape() []uint64 {
	grid := make([]uint64, len(r.tables))
	for i, t := range r.tables {
		grid[i] = t.count()
	}
	return grid
}

func (r *Rectangular) ChunkOrigin(chunkIndices []uint64) ([]uint64, error) {
	if err := checkDims(len(chunkIndices), len(r.tables)); err != nil {
		return nil, err
	}
	origin := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		o, err := r.tables[i].origin(c)
		if err != nil {
			return nil, err
		}
		origin[i] = o
	}
	return origin, nil
}

func (r *Rectangular) ChunkShape(chunkIndices []uint64) ([]uint64, error) {
	if err := checkDims(len(chunkIndices), len(r.tables)); err != nil {
		return nil, err
	}
	shape := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		s, err := r.tables[i].size(c)
		if err != nil {
			return nil, err
		}
		shape[i] = s
	}
	return shape, nil
}

func (r *Rectangular) ChunkIndices(a []uint64) ([]uint64, error) {
	if err := checkDims(len(a), len(r.tables)); err != nil {
		return nil, err
	}
	idx := make([]uint64, len(a))
	for i, v := range a {
		c, err := r.tables[i].chunkIndex(v)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	return idx, nil
}

func (r *Rectangular) ChunkElementIndices(a []uint64) ([]uint64, error) {
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
