package metadata_test

import (
	"context"
	"path/filepath"
	"testing"

	_ "gocloud.dev/blob/fileblob"

	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/metadata"
	"github.com/TuSKan/go-zarr/storage/blobstore"
	"github.com/stretchr/testify/require"
)

func TestBuildChunkGridRegular(t *testing.T) {
	g, err := metadata.BuildChunkGrid([]uint64{10, 10}, metadata.ChunkGridMetadata{
		Name:          "regular",
		Configuration: []byte(`{"chunk_shape":[5,5]}`),
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 2}, g.GridShape())
}

func TestBuildChunkGridRectilinearRoundTrips(t *testing.T) {
	g, err := metadata.BuildChunkGrid([]uint64{100}, metadata.ChunkGridMetadata{
		Name:          "rectilinear",
		Configuration: []byte(`{"chunk_shapes":[[[5,3],[15,2],20,35]]}`),
	})
	require.NoError(t, err)
	rl, ok := g.(*chunkgrid.Rectilinear)
	require.True(t, ok)

	cfg := metadata.ToRLEConfig(rl)
	require.Len(t, cfg.ChunkShapes, 1)
}

func TestBuildChunkKeyEncodingDefault(t *testing.T) {
	enc, err := metadata.BuildChunkKeyEncoding(metadata.ChunkKeyEncodingMetadata{Name: "default"})
	require.NoError(t, err)
	require.Equal(t, "c/1/2", enc.EncodeChunkKey([]uint64{1, 2}))
}

func TestBuildChunkKeyEncodingV2(t *testing.T) {
	enc, err := metadata.BuildChunkKeyEncoding(metadata.ChunkKeyEncodingMetadata{Name: "v2"})
	require.NoError(t, err)
	require.Equal(t, "1.2", enc.EncodeChunkKey([]uint64{1, 2}))
}

func TestBuildChunkKeyEncodingUnsupported(t *testing.T) {
	_, err := metadata.BuildChunkKeyEncoding(metadata.ChunkKeyEncodingMetadata{Name: "bogus"})
	require.Error(t, err)
}

func TestParseV3DataType(t *testing.T) {
	dt, err := metadata.ParseV3DataType("uint32")
	require.NoError(t, err)
	n, ok := dt.Size.FixedSize()
	require.True(t, ok)
	require.Equal(t, 4, n)

	_, err = metadata.ParseV3DataType("nonsense")
	require.Error(t, err)
}

func TestParseFillValueNumeric(t *testing.T) {
	dt, err := metadata.ParseV3DataType("uint32")
	require.NoError(t, err)
	fv, err := metadata.ParseFillValue([]byte("7"), dt)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 0, 0, 0}, fv.Bytes)
}

func TestParseV2FillValueNullDefaultsToZero(t *testing.T) {
	dt, err := metadata.ParseV3DataType("uint32")
	require.NoError(t, err)
	fv, err := metadata.ParseV2FillValue(nil, dt)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, fv.Bytes)
}

func TestBuildCodecChainBytesAndGzip(t *testing.T) {
	chain, err := metadata.BuildCodecChain([]metadata.CodecMetadata{
		{Name: "bytes", Configuration: []byte(`{"endian":"little"}`)},
		{Name: "gzip", Configuration: []byte(`{"level":5}`)},
	})
	require.NoError(t, err)
	require.NotNil(t, chain.ArrayToBytes)
	require.Len(t, chain.BytesToBytes, 1)
}

func TestBuildCodecChainUnknownName(t *testing.T) {
	_, err := metadata.BuildCodecChain([]metadata.CodecMetadata{{Name: "made-up"}})
	require.Error(t, err)
}

func TestBuildArrayV3EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := blobstore.New(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	doc := []byte(`{
		"zarr_format": 3,
		"node_type": "array",
		"shape": [4, 4],
		"data_type": "uint32",
		"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2, 2]}},
		"chunk_key_encoding": {"name": "default", "configuration": {"separator": "/"}},
		"fill_value": 0,
		"codecs": [
			{"name": "bytes", "configuration": {"endian": "little"}},
			{"name": "gzip", "configuration": {"level": 1}}
		]
	}`)

	a, err := metadata.BuildArrayV3(store, "arr", doc)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 4}, a.Shape)

	ab, err := a.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Len(t, ab.Bytes, 16)
}

func TestBuildArrayV2EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := blobstore.New(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	doc := []byte(`{
		"zarr_format": 2,
		"shape": [4, 4],
		"chunks": [2, 2],
		"dtype": "<u4",
		"compressor": {"name": "gzip", "configuration": {"level": 1}},
		"filters": null,
		"fill_value": null,
		"order": "C"
	}`)

	a, err := metadata.BuildArrayV2(store, "arr", doc)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 4}, a.Shape)

	ab, err := a.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Len(t, ab.Bytes, 16)
}
