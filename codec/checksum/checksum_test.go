package checksum_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/checksum"
	"github.com/stretchr/testify/require"
)

func TestCRC32CRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := checksum.New(checksum.CRC32C)
	data := []byte("the quick brown fox")

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, len(data)+4, len(encoded))

	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestAdler32RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := checksum.New(checksum.Adler32)
	data := []byte("zarr chunk payload")

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestFletcher32RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := checksum.New(checksum.Fletcher32)
	data := []byte("odd length payload!")

	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	ctx := context.Background()
	c := checksum.New(checksum.CRC32C)
	encoded, err := c.Encode(ctx, []byte("payload"), codec.Options{})
	require.NoError(t, err)
	encoded[0] ^= 0xFF

	_, err = c.Decode(ctx, encoded, codec.Options{})
	require.Error(t, err)
}
