// Package squeeze implements the "squeeze" array-to-array codec, dropping
// a chunk's size-1 axes before the array-to-bytes codec sees it
// (spec.md §6 "squeeze" row). Byte layout is unaffected, so Encode/Decode
// are identity on the underlying buffer; only the representation's Shape
// changes.
package squeeze

import (
	"context"

	"github.com/TuSKan/go-zarr/codec"
)

// Codec removes every size-1 axis listed in Axes (all of them, if Axes is
// nil, matching numpy's squeeze() default).
type Codec struct {
	Axes []int
}

func New(axes []int) *Codec { return &Codec{Axes: axes} }

func (c *Codec) dropSet(shape []uint64) map[int]bool {
	drop := make(map[int]bool)
	if c.Axes == nil {
		for i, d := range shape {
			if d == 1 {
				drop[i] = true
			}
		}
		return drop
	}
	for _, a := range c.Axes {
		if a >= 0 && a < len(shape) && shape[a] == 1 {
			drop[a] = true
		}
	}
	return drop
}

func (c *Codec) OutputRepresentation(repIn codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	drop := c.dropSet(repIn.Shape)
	shape := make([]uint64, 0, len(repIn.Shape))
	for i, d := range repIn.Shape {
		if !drop[i] {
			shape = append(shape, d)
		}
	}
	out := repIn
	out.Shape = shape
	return out, nil
}

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return ab, nil
}

func (c *Codec) Decode(ctx context.Context, ab codec.ArrayBytes, repIn codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return ab, nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return false }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: true}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

// PartialDecoder passes the squeezed indexer straight through: since
// Encode/Decode are identity on bytes, the inner decoder can be used with
// an indexer re-expressed over the unsqueezed shape by the caller.
func (c *Codec) PartialDecoder(inner codec.ArrayPartialDecoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return inner, nil
}

func (c *Codec) PartialEncoder(inner codec.ArrayPartialEncoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return inner, nil
}
