package zstdcodec_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/zstdcodec"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := zstdcodec.New(3, false)
	data := bytes.Repeat([]byte("go-zarr chunk payload "), 100)

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	require.Less(t, len(encoded), len(data))

	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestEncodeDecodeRoundTripWithChecksum(t *testing.T) {
	ctx := context.Background()
	c := zstdcodec.New(1, true)
	data := []byte("short payload")

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	c := zstdcodec.New(0, false)
	_, err := c.Decode(ctx, []byte("not a zstd frame"), codec.Options{})
	require.Error(t, err)
}
