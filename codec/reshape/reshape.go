// Package reshape implements the "reshape" array-to-array codec: it
// reinterprets a chunk's flat element layout under a different Shape with
// the same element count, leaving C-order byte layout untouched
// (spec.md §6 "reshape" row).
package reshape

import (
	"context"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/zarrerr"
)

type Codec struct {
	Shape []uint64
}

func New(shape []uint64) *Codec { return &Codec{Shape: append([]uint64(nil), shape...)} }

func numElements(shape []uint64) uint64 {
	n := uint64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

func (c *Codec) OutputRepresentation(repIn codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	if numElements(c.Shape) != repIn.NumElements() {
		return codec.ChunkRepresentation{}, fmt.Errorf("%w: reshape target has %d elements, chunk has %d", zarrerr.ErrCodec, numElements(c.Shape), repIn.NumElements())
	}
	out := repIn
	out.Shape = append([]uint64(nil), c.Shape...)
	return out, nil
}

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return ab, nil
}

func (c *Codec) Decode(ctx context.Context, ab codec.ArrayBytes, repIn codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return ab, nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return true }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: false}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

func (c *Codec) PartialDecoder(inner codec.ArrayPartialDecoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return inner, nil
}

func (c *Codec) PartialEncoder(inner codec.ArrayPartialEncoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return inner, nil
}
