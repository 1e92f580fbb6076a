package blosc_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/blosc"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := blosc.New(5, blosc.ByteShuffle, 4)
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 256)

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)

	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestNewClampsTypeSize(t *testing.T) {
	c := blosc.New(1, blosc.NoShuffle, 0)
	require.Equal(t, 1, c.TypeSize)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	c := blosc.New(1, blosc.NoShuffle, 1)
	_, err := c.Decode(ctx, []byte("not blosc data"), codec.Options{})
	require.Error(t, err)
}
