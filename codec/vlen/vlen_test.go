package vlen_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/vlen"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := vlen.New()
	ab, err := codec.NewVlenArrayBytes([]byte("foobarbaz"), []uint64{0, 3, 6, 9})
	require.NoError(t, err)

	rep := codec.ChunkRepresentation{
		Shape:    []uint64{3},
		DataType: zarrtype.DataType{Name: "string", Size: zarrtype.Variable()},
	}

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)

	out, err := c.Decode(ctx, raw, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, out.Bytes)
	require.Equal(t, ab.Offsets, out.Offsets)
	require.Equal(t, "foo", string(out.Element(0)))
	require.Equal(t, "baz", string(out.Element(2)))
}

func TestEncodeRejectsFlen(t *testing.T) {
	ctx := context.Background()
	c := vlen.New()
	_, err := c.Encode(ctx, codec.NewFlenArrayBytes([]byte{1, 2}), codec.ChunkRepresentation{}, codec.Options{})
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	ctx := context.Background()
	c := vlen.New()
	_, err := c.Decode(ctx, []byte{1, 2}, codec.ChunkRepresentation{}, codec.Options{})
	require.Error(t, err)
}

func TestEncodeEmptyVlen(t *testing.T) {
	ctx := context.Background()
	c := vlen.New()
	ab, err := codec.NewVlenArrayBytes(nil, []uint64{0})
	require.NoError(t, err)

	raw, err := c.Encode(ctx, ab, codec.ChunkRepresentation{}, codec.Options{})
	require.NoError(t, err)

	out, err := c.Decode(ctx, raw, codec.ChunkRepresentation{}, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, out.Offsets)
}
