// Package chunkgrid maps between array indices, chunk indices, chunk
// shapes, and chunk origins for the three grid kinds the engine supports:
// Regular, Rectangular, and Rectilinear.
package chunkgrid

import (
	"fmt"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// ChunkGrid maps an array's shape onto a tiling of chunks.
type ChunkGrid interface {
	// ArrayShape returns the grid's array shape.
	ArrayShape() []uint64
	// GridShape returns the number of chunks along each axis.
	// grid_shape[i] = ceil(array_shape[i] / chunk_shape[i]) for Regular;
	// explicit for Rectangular/Rectilinear.
	GridShape() []uint64
	// ChunkOrigin returns the array-index origin of chunk chunkIndices.
	ChunkOrigin(chunkIndices []uint64) ([]uint64, error)
	// ChunkShape returns the shape of chunk chunkIndices, clipped to the
	// array shape on any ragged edge.
	ChunkShape(chunkIndices []uint64) ([]uint64, error)
	// ChunkIndices returns the chunk indices containing array index a.
	ChunkIndices(a []uint64) ([]uint64, error)
	// ChunkElementIndices returns a's offset within its chunk.
	ChunkElementIndices(a []uint64) ([]uint64, error)
}

// axisUnlimited reports whether axis i of shape is unlimited (shape[i]==0),
// in which case any non-negative index on that axis is in-bounds.
func axisUnlimited(arrayShape []uint64, axis int) bool {
	return arrayShape[axis] == 0
}

func checkDims(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: expected %d dims, got %d", zarrerr.ErrInvalidChunkGridIndices, want, got)
	}
	return nil
}

// ChunksInArraySubset locates the chunks overlapping subset, returning an
// ArraySubset in chunk-index space (spec.md §4.2).
func ChunksInArraySubset(g ChunkGrid, subset indexer.ArraySubset) (indexer.ArraySubset, error) {
	n := g.ArrayShape()
	if err := checkDims(subset.Dimensionality(), len(n)); err != nil {
		return indexer.ArraySubset{}, err
	}
	if subset.IsEmpty() {
		start := make([]uint64, len(n))
		shape := make([]uint64, len(n))
		return indexer.ArraySubset{Start: start, Shape: shape}, nil
	}
	startChunk, err := g.ChunkIndices(subset.Start)
	if err != nil {
		return indexer.ArraySubset{}, err
	}
	endInc, _ := subset.EndInc()
	endChunk, err := g.ChunkIndices(endInc)
	if err != nil {
		return indexer.ArraySubset{}, err
	}
	shape := make([]uint64, len(startChunk))
	for i := range startChunk {
		shape[i] = endChunk[i] - startChunk[i] + 1
	}
	return indexer.NewArraySubset(startChunk, shape)
}

// ChunkSubset returns the ArraySubset (in array-index space) covered by
// chunk chunkIndices.
func ChunkSubset(g ChunkGrid, chunkIndices []uint64) (indexer.ArraySubset, error) {
	origin, err := g.ChunkOrigin(chunkIndices)
	if err != nil {
		return indexer.ArraySubset{}, err
	}
	shape, err := g.ChunkShape(chunkIndices)
	if err != nil {
		return indexer.ArraySubset{}, err
	}
	return indexer.NewArraySubset(origin, shape)
}
