package fixedscaleoffset_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/fixedscaleoffset"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func float32Rep(n uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:    []uint64{n},
		DataType: zarrtype.DataType{Name: "float32", Size: zarrtype.Fixed(4)},
	}
}

func float32Bytes(vs ...float32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestOutputRepresentationChangesDataType(t *testing.T) {
	c := fixedscaleoffset.New(100, 0, 2)
	out, err := c.OutputRepresentation(float32Rep(3))
	require.NoError(t, err)
	require.Equal(t, "int16", out.DataType.Name)
	sz, ok := out.DataType.Size.FixedSize()
	require.True(t, ok)
	require.Equal(t, 2, sz)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := fixedscaleoffset.New(100, 0, 2)
	rep := float32Rep(2)
	ab := codec.NewFlenArrayBytes(float32Bytes(1.23, -4.5))

	encoded, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Len(t, encoded.Bytes, 4)

	decoded, err := c.Decode(ctx, encoded, rep, codec.Options{})
	require.NoError(t, err)
	require.Len(t, decoded.Bytes, 8)

	v0 := math.Float32frombits(binary.LittleEndian.Uint32(decoded.Bytes[0:4]))
	v1 := math.Float32frombits(binary.LittleEndian.Uint32(decoded.Bytes[4:8]))
	require.InDelta(t, 1.23, v0, 0.01)
	require.InDelta(t, -4.5, v1, 0.01)
}

func TestEncodeRejectsNonFloatInput(t *testing.T) {
	ctx := context.Background()
	c := fixedscaleoffset.New(1, 0, 2)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: zarrtype.DataType{Name: "int16", Size: zarrtype.Fixed(2)}}
	_, err := c.Encode(ctx, codec.NewFlenArrayBytes([]byte{1, 0}), rep, codec.Options{})
	require.Error(t, err)
}
