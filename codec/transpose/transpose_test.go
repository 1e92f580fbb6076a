package transpose_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/transpose"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func u8Rep(shape ...uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:    shape,
		DataType: zarrtype.DataType{Name: "uint8", Size: zarrtype.Fixed(1)},
	}
}

func TestNewRejectsNonPermutation(t *testing.T) {
	_, err := transpose.New([]int{0, 0})
	require.Error(t, err)
}

func TestOutputRepresentationPermutesShape(t *testing.T) {
	c, err := transpose.New([]int{1, 0})
	require.NoError(t, err)
	out, err := c.OutputRepresentation(u8Rep(2, 3))
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 2}, out.Shape)
}

func TestEncodeDecodeRoundTrip2D(t *testing.T) {
	ctx := context.Background()
	c, err := transpose.New([]int{1, 0})
	require.NoError(t, err)
	rep := u8Rep(2, 3)
	// row-major 2x3: [[0,1,2],[3,4,5]]
	ab := codec.NewFlenArrayBytes([]byte{0, 1, 2, 3, 4, 5})

	encoded, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	// transposed 3x2: [[0,3],[1,4],[2,5]]
	require.Equal(t, []byte{0, 3, 1, 4, 2, 5}, encoded.Bytes)

	decoded, err := c.Decode(ctx, encoded, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, decoded.Bytes)
}
