package gzipcodec_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/gzipcodec"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := gzipcodec.New(5)
	data := bytes.Repeat([]byte("hello zarr "), 50)

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	require.Less(t, len(encoded), len(data))

	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestNewDefaultsLevelWhenNonPositive(t *testing.T) {
	c := gzipcodec.New(0)
	require.NotNil(t, c)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	c := gzipcodec.New(1)
	_, err := c.Decode(ctx, []byte("not compressed data"), codec.Options{})
	require.Error(t, err)
}
