package squeeze_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/squeeze"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func rep(shape ...uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:    shape,
		DataType: zarrtype.DataType{Name: "uint8", Size: zarrtype.Fixed(1)},
	}
}

func TestOutputRepresentationDropsAllSize1AxesByDefault(t *testing.T) {
	c := squeeze.New(nil)
	out, err := c.OutputRepresentation(rep(1, 3, 1, 4))
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 4}, out.Shape)
}

func TestOutputRepresentationDropsOnlyListedAxes(t *testing.T) {
	c := squeeze.New([]int{0})
	out, err := c.OutputRepresentation(rep(1, 1, 4))
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 4}, out.Shape)
}

func TestEncodeDecodeIdentity(t *testing.T) {
	ctx := context.Background()
	c := squeeze.New(nil)
	ab := codec.NewFlenArrayBytes([]byte{1, 2, 3, 4})

	encoded, err := c.Encode(ctx, ab, rep(1, 4), codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, encoded.Bytes)

	decoded, err := c.Decode(ctx, encoded, rep(1, 4), codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, decoded.Bytes)
}
