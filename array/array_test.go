package array_test

import (
	"context"
	"path/filepath"
	"testing"

	_ "gocloud.dev/blob/fileblob"

	"github.com/TuSKan/go-zarr/array"
	"github.com/TuSKan/go-zarr/cache"
	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bytescodec"
	"github.com/TuSKan/go-zarr/codec/gzipcodec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage/blobstore"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func uint32DataType() zarrtype.DataType {
	return zarrtype.DataType{Name: "uint32", Size: zarrtype.Fixed(4), Endian: zarrtype.LittleEndian}
}

func newTestArray(t *testing.T, shape, chunkShape []uint64) *array.Array {
	t.Helper()
	dir := t.TempDir()
	store, err := blobstore.New(context.Background(), "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	grid, err := chunkgrid.NewRegular(shape, chunkShape)
	require.NoError(t, err)

	chain, err := codec.NewCodecChain(
		nil,
		[]codec.ArrayToBytesCodec{bytescodec.New(zarrtype.LittleEndian)},
		[]codec.BytesToBytesCodec{gzipcodec.New(0)},
	)
	require.NoError(t, err)

	dtype := uint32DataType()
	fill := zarrtype.ZeroFillValue(4)
	return array.New(store, "arr", shape, grid, chain, dtype, fill, array.DefaultV3Encoding())
}

func putUint32(t *testing.T, vals ...uint32) codec.ArrayBytes {
	t.Helper()
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		buf[4*i] = byte(v)
		buf[4*i+1] = byte(v >> 8)
		buf[4*i+2] = byte(v >> 16)
		buf[4*i+3] = byte(v >> 24)
	}
	return codec.NewFlenArrayBytes(buf)
}

func asUint32s(ab codec.ArrayBytes) []uint32 {
	n := len(ab.Bytes) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		b := ab.Bytes[4*i:]
		out[i] = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return out
}

func TestRetrieveChunkReturnsFillWhenAbsent(t *testing.T) {
	a := newTestArray(t, []uint64{4, 4}, []uint64{2, 2})
	ab, err := a.RetrieveChunk(context.Background(), []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 0, 0, 0}, asUint32s(ab))
}

func TestStoreAndRetrieveChunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestArray(t, []uint64{4, 4}, []uint64{2, 2})

	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t, 1, 2, 3, 4)))

	out, err := a.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4}, asUint32s(out))
}

func TestStoreChunkElidesAllFillValue(t *testing.T) {
	ctx := context.Background()
	a := newTestArray(t, []uint64{4, 4}, []uint64{2, 2})

	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t, 1, 2, 3, 4)))
	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t, 0, 0, 0, 0)))

	_, found, err := a.Store.SizeKey(ctx, "arr/c/0/0")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreAndRetrieveArraySubsetAcrossChunks(t *testing.T) {
	ctx := context.Background()
	a := newTestArray(t, []uint64{4, 4}, []uint64{2, 2})

	// Write a 4x4 row-major array by chunk to establish a known baseline.
	for cy := uint64(0); cy < 2; cy++ {
		for cx := uint64(0); cx < 2; cx++ {
			base := uint32((cy*2)*10 + cx*10)
			require.NoError(t, a.StoreChunk(ctx, []uint64{cy, cx}, putUint32(t, base, base+1, base+2, base+3)))
		}
	}

	sub, err := indexer.NewArraySubset([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	out, err := a.RetrieveArraySubset(ctx, indexer.AsIndexer(sub))
	require.NoError(t, err)
	require.Len(t, asUint32s(out), 4)

	newSub, err := indexer.NewArraySubset([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, a.StoreArraySubset(ctx, indexer.AsIndexer(newSub), putUint32(t, 100, 101, 102, 103)))

	roundTrip, err := a.RetrieveArraySubset(ctx, indexer.AsIndexer(newSub))
	require.NoError(t, err)
	require.Equal(t, []uint32{100, 101, 102, 103}, asUint32s(roundTrip))
}

func TestRetrieveChunkSubset(t *testing.T) {
	ctx := context.Background()
	a := newTestArray(t, []uint64{4, 4}, []uint64{4, 4})
	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t,
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		12, 13, 14, 15,
	)))

	sub, err := indexer.NewArraySubset([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	ab, err := a.RetrieveChunkSubset(ctx, []uint64{0, 0}, indexer.AsIndexer(sub))
	require.NoError(t, err)
	require.Equal(t, []uint32{5, 6, 9, 10}, asUint32s(ab))
}

func TestChunkKeyEncodingVariants(t *testing.T) {
	require.Equal(t, "c/1/2", array.DefaultV3Encoding().EncodeChunkKey([]uint64{1, 2}))
	require.Equal(t, "1.2", array.DefaultV2Encoding().EncodeChunkKey([]uint64{1, 2}))
	require.Equal(t, "0", array.DefaultV2Encoding().EncodeChunkKey(nil))
}

func TestArrayUsesCache(t *testing.T) {
	ctx := context.Background()
	a := newTestArray(t, []uint64{2, 2}, []uint64{2, 2})
	c, err := cache.NewCountLimited(8)
	require.NoError(t, err)
	a.Cache = c

	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t, 1, 2, 3, 4)))
	_, err = a.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, putUint32(t, 9, 9, 9, 9)))
	require.Equal(t, 0, c.Len())

	out, err := a.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, []uint32{9, 9, 9, 9}, asUint32s(out))
}
