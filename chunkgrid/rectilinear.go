package chunkgrid

import (
	"fmt"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// RLEEntry is one run of the metadata's run-length-encoded chunk-size list:
// Count consecutive chunks of size Value.
type RLEEntry struct {
	Value uint64
	Count uint64
}

// Rectilinear tiles each axis with a run-length-encoded list of chunk
// sizes. Internally it expands to the same cumulative-offset representation
// as Rectangular's Varying axis; ToRLE re-compresses consecutive equal
// sizes for a lossless metadata round-trip.
type Rectilinear struct {
	arrayShape []uint64
	rle        [][]RLEEntry
	tables     []axisTable
}

// NewRectilinear builds a Rectilinear grid from per-axis RLE chunk-size
// lists. Expanded sizes on each axis must sum to the array's extent.
func NewRectilinear(arrayShape []uint64, rle [][]RLEEntry) (*Rectilinear, error) {
	if err := checkDims(len(rle), len(arrayShape)); err != nil {
		return nil, err
	}
	tables := make([]axisTable, len(rle))
	for i, axisRLE := range rle {
		sizes, err := expandRLE(axisRLE)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		var sum uint64
		for _, s := range sizes {
			sum += s
		}
		if sum != arrayShape[i] {
			return nil, fmt.Errorf("%w: rectilinear axis %d sizes sum to %d, array extent is %d", zarrerr.ErrInvalidChunkGridIndices, i, sum, arrayShape[i])
		}
		tables[i] = newAxisTable(sizes)
	}
	return &Rectilinear{
		arrayShape: append([]uint64(nil), arrayShape...),
		rle:        rle,
		tables:     tables,
	}, nil
}

func expandRLE(entries []RLEEntry) ([]uint64, error) {
	var sizes []uint64
	for _, e := range entries {
		if e.Count == 0 {
			return nil, fmt.Errorf("%w: RLE entry with zero count", zarrerr.ErrInvalidChunkGridIndices)
		}
		if e.Value == 0 {
			return nil, fmt.Errorf("%w: RLE entry with zero-size chunk", zarrerr.ErrInvalidChunkGridIndices)
		}
		for i := uint64(0); i < e.Count; i++ {
			sizes = append(sizes, e.Value)
		}
	}
	return sizes, nil
}

// ToRLE recompresses each axis's expanded size list into the minimal
// run-length encoding, merging consecutive equal sizes. Used to serialise
// metadata after construction or mutation, producing an equivalent (if not
// byte-identical) RLE to the one the grid was built from.
func (r *Rectilinear) ToRLE() [][]RLEEntry {
	out := make([][]RLEEntry, len(r.tables))
	for i, t := range r.tables {
		var entries []RLEEntry
		for _, s := range t.sizes {
			if len(entries) > 0 && entries[len(entries)-1].Value == s {
				entries[len(entries)-1].Count++
				continue
			}
			entries = append(entries, RLEEntry{Value: s, Count: 1})
		}
		out[i] = entries
	}
	return out
}

func (r *Rectilinear) ArrayShape() []uint64 { return append([]uint64(nil), r.arrayShape...) }

func (r *Rectilinear) GridShape() []uint64 {
	grid := make([]uint64, len(r.tables))
	for i, t := range r.tables {
		grid[i] = t.count()
	}
	return grid
}

func (r *Rectilinear) ChunkOrigin(chunkIndices []uint64) ([]uint64, error) {
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

func (r *Rectilinear) ChunkShape(chunkIndices []uint64) ([]uint64, error) {
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

func (r *Rectilinear) ChunkIndices(a []uint64) ([]uint64, error) {
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

func (r *Rectilinear) ChunkElementIndices(a []uint64) ([]uint64, error) {
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
