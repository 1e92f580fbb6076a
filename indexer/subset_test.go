package indexer_test

import (
	"testing"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArraySubsetOverlap(t *testing.T) {
	a, err := indexer.NewArraySubset([]uint64{2, 2}, []uint64{4, 4})
	require.NoError(t, err)
	b, err := indexer.NewArraySubset([]uint64{0, 0}, []uint64{5, 5})
	require.NoError(t, err)

	o, err := a.Overlap(b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 2}, o.Start)
	assert.Equal(t, []uint64{3, 3}, o.Shape)
}

func TestArraySubsetOverlapEmpty(t *testing.T) {
	a, _ := indexer.NewArraySubset([]uint64{0, 0}, []uint64{2, 2})
	b, _ := indexer.NewArraySubset([]uint64{5, 5}, []uint64{2, 2})
	o, err := a.Overlap(b)
	require.NoError(t, err)
	assert.True(t, o.IsEmpty())
}

func TestArraySubsetOverlapDimMismatch(t *testing.T) {
	a, _ := indexer.NewArraySubset([]uint64{0, 0}, []uint64{2, 2})
	b, _ := indexer.NewArraySubset([]uint64{0, 0, 0}, []uint64{2, 2, 2})
	_, err := a.Overlap(b)
	require.Error(t, err)
}

func TestArraySubsetRelativeTo(t *testing.T) {
	s, _ := indexer.NewArraySubset([]uint64{4, 6}, []uint64{2, 2})
	r, err := s.RelativeTo([]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, r.Start)

	_, err = s.RelativeTo([]uint64{5, 4})
	require.Error(t, err)
}

func TestArraySubsetIndices(t *testing.T) {
	s, _ := indexer.NewArraySubset([]uint64{0, 0}, []uint64{2, 3})
	var got [][]uint64
	s.Indices(func(idx []uint64) {
		got = append(got, append([]uint64(nil), idx...))
	})
	want := [][]uint64{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
	}
	assert.Equal(t, want, got)
}

func TestArraySubsetEndInc(t *testing.T) {
	s, _ := indexer.NewArraySubset([]uint64{1, 1}, []uint64{3, 3})
	end, ok := s.EndInc()
	require.True(t, ok)
	assert.Equal(t, []uint64{3, 3}, end)

	empty, _ := indexer.NewArraySubset([]uint64{0, 0}, []uint64{0, 3})
	_, ok = empty.EndInc()
	assert.False(t, ok)
}

func TestContiguousLinearisedIndicesFullRow(t *testing.T) {
	// array shape [4,4], subset is two full rows starting at row 1.
	s, _ := indexer.NewArraySubset([]uint64{1, 0}, []uint64{2, 4})
	runs := s.ContiguousLinearisedIndices([]uint64{4, 4})
	require.Len(t, runs, 1)
	assert.Equal(t, uint64(4), runs[0].LinearStart)
	assert.Equal(t, uint64(8), runs[0].Length)
}

func TestContiguousLinearisedIndicesPartialRow(t *testing.T) {
	// array shape [4,4], subset spans columns [1,3) of two rows: not
	// contiguous across rows, so one run per row.
	s, _ := indexer.NewArraySubset([]uint64{0, 1}, []uint64{2, 2})
	runs := s.ContiguousLinearisedIndices([]uint64{4, 4})
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(1), runs[0].LinearStart)
	assert.Equal(t, uint64(2), runs[0].Length)
	assert.Equal(t, uint64(5), runs[1].LinearStart)
	assert.Equal(t, uint64(2), runs[1].Length)
}

func TestIndexListAsArraySubset(t *testing.T) {
	l, ok := indexer.NewIndexList([][]uint64{{0, 0}, {1, 1}})
	require.True(t, ok)
	_, isSubset := l.AsArraySubset()
	assert.False(t, isSubset)
	assert.Equal(t, uint64(2), l.Len())
}

func TestAsIndexer(t *testing.T) {
	s, _ := indexer.NewArraySubset([]uint64{0}, []uint64{3})
	idx := indexer.AsIndexer(s)
	assert.Equal(t, uint64(3), idx.Len())
	sub, ok := idx.AsArraySubset()
	require.True(t, ok)
	assert.Equal(t, s, sub)
}
