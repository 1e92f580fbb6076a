package bitround_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bitround"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func float32Rep(n uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:    []uint64{n},
		DataType: zarrtype.DataType{Name: "float32", Size: zarrtype.Fixed(4)},
	}
}

func float32Bytes(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func TestEncodeKeepAllBitsIsIdentity(t *testing.T) {
	ctx := context.Background()
	c := bitround.New(23)
	rep := float32Rep(1)
	ab := codec.NewFlenArrayBytes(float32Bytes(3.14))

	encoded, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, encoded.Bytes)
}

func TestEncodeZerosLowMantissaBits(t *testing.T) {
	ctx := context.Background()
	c := bitround.New(4)
	rep := float32Rep(1)
	ab := codec.NewFlenArrayBytes(float32Bytes(1.23456789))

	encoded, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Len(t, encoded.Bytes, 4)

	bits := binary.LittleEndian.Uint32(encoded.Bytes)
	low := bits & ((1 << (23 - 4)) - 1)
	require.Zero(t, low)
}

func TestDecodeIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := bitround.New(10)
	rep := float32Rep(1)
	ab := codec.NewFlenArrayBytes(float32Bytes(2.5))

	decoded, err := c.Decode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, decoded.Bytes)
}

func TestEncodeRejectsNonFloatSize(t *testing.T) {
	ctx := context.Background()
	c := bitround.New(4)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: zarrtype.DataType{Name: "int16", Size: zarrtype.Fixed(2)}}
	_, err := c.Encode(ctx, codec.NewFlenArrayBytes([]byte{1, 2}), rep, codec.Options{})
	require.Error(t, err)
}
