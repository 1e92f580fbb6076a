// Package fixedscaleoffset implements the "fixedscaleoffset" array-to-array
// codec: a lossy quantization of floating point elements into a fixed-size
// integer representation, val_int = round((val_float - Offset) * Scale)
// (spec.md §6 "fixedscaleoffset" row).
package fixedscaleoffset

import (
	"context"
	"fmt"
	"math"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// Codec quantizes float32/float64 elements to a fixed-size signed integer
// of IntSize bytes (2, 4, or 8).
type Codec struct {
	Scale   float64
	Offset  float64
	IntSize int
}

func New(scale, offset float64, intSize int) *Codec {
	return &Codec{Scale: scale, Offset: offset, IntSize: intSize}
}

func (c *Codec) OutputRepresentation(repIn codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	out := repIn
	out.DataType = zarrtype.DataType{
		Name:   fmt.Sprintf("int%d", c.IntSize*8),
		Size:   zarrtype.Fixed(c.IntSize),
		Endian: zarrtype.LittleEndian,
	}
	return out, nil
}

func (c *Codec) floatSize(rep codec.ChunkRepresentation) (int, error) {
	sz, ok := rep.DataType.Size.FixedSize()
	if !ok || (sz != 4 && sz != 8) {
		return 0, fmt.Errorf("%w: fixedscaleoffset requires float32 or float64 input", zarrerr.ErrUnsupportedDataType)
	}
	return sz, nil
}

func (c *Codec) readFloat(b []byte, size int) float64 {
	if size == 4 {
		bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		return float64(math.Float32frombits(bits))
	}
	bits := uint64(0)
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits)
}

func (c *Codec) writeInt(b []byte, v int64) {
	for i := 0; i < c.IntSize; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func (c *Codec) readInt(b []byte) int64 {
	var v uint64
	for i := 0; i < c.IntSize; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	shift := 64 - uint(c.IntSize)*8
	return int64(v<<shift) >> shift
}

func (c *Codec) writeFloat(b []byte, v float64, size int) {
	if size == 4 {
		bits := math.Float32bits(float32(v))
		b[0] = byte(bits)
		b[1] = byte(bits >> 8)
		b[2] = byte(bits >> 16)
		b[3] = byte(bits >> 24)
		return
	}
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
}

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	floatSize, err := c.floatSize(rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	n := len(ab.Bytes) / floatSize
	out := make([]byte, n*c.IntSize)
	for i := 0; i < n; i++ {
		f := c.readFloat(ab.Bytes[i*floatSize:], floatSize)
		iv := int64(math.Round((f - c.Offset) * c.Scale))
		c.writeInt(out[i*c.IntSize:], iv)
	}
	return codec.NewFlenArrayBytes(out), nil
}

func (c *Codec) Decode(ctx context.Context, ab codec.ArrayBytes, repIn codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	floatSize, err := c.floatSize(repIn)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	n := len(ab.Bytes) / c.IntSize
	out := make([]byte, n*floatSize)
	for i := 0; i < n; i++ {
		iv := c.readInt(ab.Bytes[i*c.IntSize:])
		f := float64(iv)/c.Scale + c.Offset
		c.writeFloat(out[i*floatSize:], f, floatSize)
	}
	return codec.NewFlenArrayBytes(out), nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return true }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: false}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

func (c *Codec) PartialDecoder(inner codec.ArrayPartialDecoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &wrappedDecoder{codec: c, inner: inner, repOuter: repOuter}, nil
}

func (c *Codec) PartialEncoder(inner codec.ArrayPartialEncoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return &wrappedEncoder{wrappedDecoder: &wrappedDecoder{codec: c, inner: inner, repOuter: repOuter}, inner: inner}, nil
}

type wrappedDecoder struct {
	codec    *Codec
	inner    codec.ArrayPartialDecoder
	repOuter codec.ChunkRepresentation
}

func (w *wrappedDecoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	outRep, err := w.codec.OutputRepresentation(w.repOuter)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	full, err := w.inner.PartialDecode(ctx, indexer.AsIndexer(outRep.FullSubset()))
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	decoded, err := w.codec.Decode(ctx, full, w.repOuter, codec.Options{})
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return codec.ExtractArrayBytes(decoded, w.repOuter, ind)
}

type wrappedEncoder struct {
	*wrappedDecoder
	inner codec.ArrayPartialEncoder
}

func (w *wrappedEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, newData codec.ArrayBytes) error {
	full, err := w.PartialDecode(ctx, indexer.AsIndexer(w.repOuter.FullSubset()))
	if err != nil {
		return err
	}
	updated, err := codec.UpdateArrayBytes(full, w.repOuter, ind, newData)
	if err != nil {
		return err
	}
	encoded, err := w.codec.Encode(ctx, updated, w.repOuter, codec.Options{})
	if err != nil {
		return err
	}
	outRep, err := w.codec.OutputRepresentation(w.repOuter)
	if err != nil {
		return err
	}
	return w.inner.PartialEncode(ctx, indexer.AsIndexer(outRep.FullSubset()), encoded)
}

func (w *wrappedEncoder) Erase(ctx context.Context) error { return w.inner.Erase(ctx) }

func (w *wrappedEncoder) SupportsPartialEncode() bool { return false }
