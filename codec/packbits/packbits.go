// Package packbits implements the "packbits" array-to-bytes codec: it
// packs one-byte-per-element boolean/small-integer data into a dense
// bitstream, 8 elements per byte, LSB first (spec.md §6 "packbits" row).
package packbits

import (
	"context"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/zarrerr"
)

type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) ([]byte, error) {
	if ab.Kind != codec.FlenKind {
		return nil, fmt.Errorf("%w: packbits requires fixed-length array bytes", zarrerr.ErrUnsupportedDataType)
	}
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok || elemSize != 1 {
		return nil, fmt.Errorf("%w: packbits requires a 1-byte element data type", zarrerr.ErrUnsupportedDataType)
	}
	n := len(ab.Bytes)
	out := make([]byte, (n+7)/8)
	for i, b := range ab.Bytes {
		if b != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	n := rep.NumElements()
	out := make([]byte, n)
	for i := uint64(0); i < n; i++ {
		byteIdx := i / 8
		if byteIdx >= uint64(len(raw)) {
			break
		}
		if raw[byteIdx]&(1<<uint(i%8)) != 0 {
			out[i] = 1
		}
	}
	return codec.NewFlenArrayBytes(out), nil
}

func (c *Codec) EncodedRepresentation(rep codec.ChunkRepresentation) (codec.BytesRepresentation, error) {
	return codec.FixedRepresentation((rep.NumElements() + 7) / 8), nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return true }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: false}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

func (c *Codec) PartialDecoder(input codec.BytesPartialDecoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &codec.DefaultArrayPartialDecoder{Inner: input, Chain: c, Rep: rep, Opts: opts}, nil
}

func (c *Codec) PartialEncoder(input codec.BytesPartialEncoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return &codec.DefaultArrayPartialEncoder{Inner: input, Chain: c, Rep: rep, Opts: opts}, nil
}
