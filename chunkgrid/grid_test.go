package chunkgrid_test

import (
	"testing"

	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegularGridShape(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{8, 8}, []uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 2}, g.GridShape())
}

func TestRegularRaggedEdge(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{10}, []uint64{4})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, g.GridShape())
	shape, err := g.ChunkShape([]uint64{2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, shape) // last chunk clipped: 10 - 2*4 = 2
}

func TestRegularChunkIndicesOutOfBounds(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{8}, []uint64{4})
	_, err := g.ChunkIndices([]uint64{8})
	require.Error(t, err)
}

func TestRegularUnlimitedAxis(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{0, 8}, []uint64{4, 4})
	require.NoError(t, err)
	// any index on the unlimited axis is in-bounds
	idx, err := g.ChunkIndices([]uint64{1000, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint64{250, 1}, idx)
}

func TestChunksInArraySubset(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{8, 8}, []uint64{4, 4})
	require.NoError(t, err)
	sub, _ := indexer.NewArraySubset([]uint64{2, 6}, []uint64{4, 2})
	chunks, err := chunkgrid.ChunksInArraySubset(g, sub)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, chunks.Start)
	assert.Equal(t, []uint64{2, 1}, chunks.Shape)
}

func TestRectangularMixedAxes(t *testing.T) {
	g, err := chunkgrid.NewRectangular([]uint64{10, 9}, []chunkgrid.RectangularAxis{
		chunkgrid.FixedAxis(4),
		chunkgrid.VaryingAxis([]uint64{3, 2, 4}),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 3}, g.GridShape())

	idx, err := g.ChunkIndices([]uint64{9, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 2}, idx)

	rel, err := g.ChunkElementIndices([]uint64{9, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 0}, rel)
}

func TestRectangularVaryingSumMismatch(t *testing.T) {
	_, err := chunkgrid.NewRectangular([]uint64{10}, []chunkgrid.RectangularAxis{
		chunkgrid.VaryingAxis([]uint64{3, 3}),
	})
	require.Error(t, err)
}

// TestRectilinearRLERoundTrip implements spec.md §8 scenario 6.
func TestRectilinearRLERoundTrip(t *testing.T) {
	axis0 := []chunkgrid.RLEEntry{
		{Value: 5, Count: 3},
		{Value: 15, Count: 2},
		{Value: 20, Count: 1},
		{Value: 35, Count: 1},
	}
	axis1 := []chunkgrid.RLEEntry{
		{Value: 10, Count: 10},
	}

	g, err := chunkgrid.NewRectilinear([]uint64{100, 100}, [][]chunkgrid.RLEEntry{axis0, axis1})
	require.NoError(t, err)

	assert.Equal(t, []uint64{7, 10}, g.GridShape())

	chunkIdx, err := g.ChunkIndices([]uint64{17, 17})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, chunkIdx)

	elemIdx, err := g.ChunkElementIndices([]uint64{17, 17})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 7}, elemIdx)

	// Serialise (ToRLE) then reconstruct; the rebuilt grid must be
	// equivalent (same grid shape, same chunk geometry) even if the RLE
	// encoding itself is re-compressed.
	rle := g.ToRLE()
	g2, err := chunkgrid.NewRectilinear([]uint64{100, 100}, rle)
	require.NoError(t, err)
	assert.Equal(t, g.GridShape(), g2.GridShape())
	chunkIdx2, err := g2.ChunkIndices([]uint64{17, 17})
	require.NoError(t, err)
	assert.Equal(t, chunkIdx, chunkIdx2)
}

func TestRectilinearZeroCountRejected(t *testing.T) {
	_, err := chunkgrid.NewRectilinear([]uint64{10}, [][]chunkgrid.RLEEntry{
		{{Value: 10, Count: 0}},
	})
	require.Error(t, err)
}

func TestChunkSubset(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{8, 8}, []uint64{4, 4})
	sub, err := chunkgrid.ChunkSubset(g, []uint64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 4}, sub.Start)
	assert.Equal(t, []uint64{4, 4}, sub.Shape)
}
