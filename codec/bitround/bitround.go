// Package bitround implements the "bitround" array-to-array codec: a lossy
// transform that zeroes the low-order mantissa bits of floating point
// elements to improve downstream compressibility (spec.md §6 "bitround"
// row). Shape and data type are unchanged; only bit patterns within each
// element are rounded.
package bitround

import (
	"context"
	"fmt"
	"math"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// Codec rounds floating point elements to KeepBits mantissa bits.
type Codec struct {
	KeepBits uint
}

func New(keepBits uint) *Codec { return &Codec{KeepBits: keepBits} }

func (c *Codec) OutputRepresentation(repIn codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	return repIn, nil
}

func (c *Codec) round(data []byte, rep codec.ChunkRepresentation) ([]byte, error) {
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return nil, fmt.Errorf("%w: bitround requires a fixed-size data type", zarrerr.ErrUnsupportedDataType)
	}
	out := append([]byte(nil), data...)
	switch elemSize {
	case 4:
		if c.KeepBits >= 23 {
			break
		}
		mask := ^uint32(0) << (23 - c.KeepBits)
		for off := 0; off+4 <= len(out); off += 4 {
			bits := bitsLE32(out[off : off+4])
			rounded := roundMantissa32(bits, mask)
			putLE32(out[off:off+4], rounded)
		}
	case 8:
		if c.KeepBits >= 52 {
			break
		}
		mask := ^uint64(0) << (52 - c.KeepBits)
		for off := 0; off+8 <= len(out); off += 8 {
			bits := bitsLE64(out[off : off+8])
			rounded := roundMantissa64(bits, mask)
			putLE64(out[off:off+8], rounded)
		}
	default:
		return nil, fmt.Errorf("%w: bitround only supports 4- or 8-byte floats", zarrerr.ErrUnsupportedDataType)
	}
	return out, nil
}

func roundMantissa32(bits, mask uint32) uint32 {
	half := ^mask>>1 + 1
	rounded := (bits + half) & mask
	if math.Float32frombits(rounded) != math.Float32frombits(rounded) {
		return bits & mask
	}
	return rounded
}

func roundMantissa64(bits, mask uint64) uint64 {
	half := ^mask>>1 + 1
	rounded := (bits + half) & mask
	if math.Float64frombits(rounded) != math.Float64frombits(rounded) {
		return bits & mask
	}
	return rounded
}

func bitsLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func bitsLE64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	out, err := c.round(ab.Bytes, rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return codec.NewFlenArrayBytes(out), nil
}

// Decode is a no-op: bitround's information loss happens on Encode, and
// the rounded bit pattern already decodes to a valid value of the same
// data type.
func (c *Codec) Decode(ctx context.Context, ab codec.ArrayBytes, repIn codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return ab, nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return false }

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
	return &partialEncoder{codec: c, inner: inner, rep: repOuter}, nil
}

type partialEncoder struct {
	codec *Codec
	inner codec.ArrayPartialEncoder
	rep   codec.ChunkRepresentation
}

func (e *partialEncoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	return e.inner.PartialDecode(ctx, ind)
}

func (e *partialEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, ab codec.ArrayBytes) error {
	rounded, err := e.codec.round(ab.Bytes, e.rep)
	if err != nil {
		return err
	}
	return e.inner.PartialEncode(ctx, ind, codec.NewFlenArrayBytes(rounded))
}

func (e *partialEncoder) Erase(ctx context.Context) error { return e.inner.Erase(ctx) }

func (e *partialEncoder) SupportsPartialEncode() bool { return e.inner.SupportsPartialEncode() }
