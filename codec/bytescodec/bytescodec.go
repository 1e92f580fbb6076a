// Package bytescodec implements the "bytes" array-to-bytes codec: the
// terminal codec for fixed-size data types, laying decoded elements out
// flat with a chosen endianness (spec.md §4.2, §6 "bytes" row).
package bytescodec

import (
	"context"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// Codec is the "bytes" array-to-bytes codec.
type Codec struct {
	Endian zarrtype.Endian
}

// New builds a bytes codec writing elements in the given endianness.
func New(endian zarrtype.Endian) *Codec { return &Codec{Endian: endian} }

func (c *Codec) effectiveEndian(dtEndian zarrtype.Endian) zarrtype.Endian {
	if c.Endian != zarrtype.NativeEndian {
		return c.Endian
	}
	return dtEndian
}

// Encode lays ab's elements out as a flat byte buffer, swapping byte order
// if the codec's endianness differs from the data type's storage order.
func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) ([]byte, error) {
	if ab.Kind != codec.FlenKind {
		return nil, fmt.Errorf("%w: bytes codec requires fixed-length array bytes", zarrerr.ErrUnsupportedDataType)
	}
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return nil, fmt.Errorf("%w: bytes codec requires a fixed-size data type", zarrerr.ErrUnsupportedDataType)
	}
	endian := c.effectiveEndian(rep.DataType.Endian)
	if endian == rep.DataType.Endian || endian == zarrtype.NativeEndian || elemSize <= 1 {
		return append([]byte(nil), ab.Bytes...), nil
	}
	return swapEndian(ab.Bytes, elemSize), nil
}

// Decode is Encode's inverse.
func (c *Codec) Decode(ctx context.Context, raw []byte, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return codec.ArrayBytes{}, fmt.Errorf("%w: bytes codec requires a fixed-size data type", zarrerr.ErrUnsupportedDataType)
	}
	endian := c.effectiveEndian(rep.DataType.Endian)
	out := append([]byte(nil), raw...)
	if endian != rep.DataType.Endian && endian != zarrtype.NativeEndian && elemSize > 1 {
		out = swapEndian(out, elemSize)
	}
	return codec.NewFlenArrayBytes(out), nil
}

func swapEndian(data []byte, elemSize int) []byte {
	out := make([]byte, len(data))
	for off := 0; off+elemSize <= len(data); off += elemSize {
		for i := 0; i < elemSize; i++ {
			out[off+i] = data[off+elemSize-1-i]
		}
	}
	return out
}

// EncodedRepresentation reports the fixed byte size of rep's flat layout.
func (c *Codec) EncodedRepresentation(rep codec.ChunkRepresentation) (codec.BytesRepresentation, error) {
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return codec.UnboundedRepresentation(), nil
	}
	return codec.FixedRepresentation(rep.NumElements() * uint64(elemSize)), nil
}

// PartialDecoderDecodesAll is false: partial reads need only the relevant
// byte range, never the whole chunk.
func (c *Codec) PartialDecoderDecodesAll() bool { return false }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: true}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

// PartialDecoder reads exactly the byte ranges that cover ind's elements,
// byte-swapping them in place if required.
func (c *Codec) PartialDecoder(input codec.BytesPartialDecoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return nil, fmt.Errorf("%w: bytes codec requires a fixed-size data type", zarrerr.ErrUnsupportedDataType)
	}
	return &partialDecoder{input: input, rep: rep, elemSize: elemSize, endian: c.effectiveEndian(rep.DataType.Endian)}, nil
}

// PartialEncoder layers a byte-range write on top of input, swapping
// endianness as it writes.
func (c *Codec) PartialEncoder(input codec.BytesPartialEncoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return nil, fmt.Errorf("%w: bytes codec requires a fixed-size data type", zarrerr.ErrUnsupportedDataType)
	}
	dec := &partialDecoder{input: input, rep: rep, elemSize: elemSize, endian: c.effectiveEndian(rep.DataType.Endian)}
	return &partialEncoder{partialDecoder: dec, input: input}, nil
}

type partialDecoder struct {
	input    codec.BytesPartialDecoder
	rep      codec.ChunkRepresentation
	elemSize int
	endian   zarrtype.Endian
}

func (d *partialDecoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	strides := indexer.CStrides(d.rep.Shape)
	var ranges []storage.ByteRange
	var count int
	ind.Indices(func(idx []uint64) {
		var lin uint64
		for i, v := range idx {
			lin += v * strides[i]
		}
		length := uint64(d.elemSize)
		ranges = append(ranges, storage.FromStart(lin*uint64(d.elemSize), &length))
		count++
	})
	if count == 0 {
		return codec.NewFlenArrayBytes(nil), nil
	}
	raws, found, err := d.input.PartialDecodeMany(ctx, ranges)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	out := make([]byte, 0, count*d.elemSize)
	fill := d.rep.FillValue.Bytes
	for i, r := range raws {
		if !found || len(r) < d.elemSize {
			out = append(out, fill...)
			continue
		}
		elem := r
		if d.endian != d.rep.DataType.Endian && d.endian != zarrtype.NativeEndian && d.elemSize > 1 {
			elem = swapEndian(elem, d.elemSize)
		}
		out = append(out, elem...)
		_ = i
	}
	return codec.NewFlenArrayBytes(out), nil
}

type partialEncoder struct {
	*partialDecoder
	input codec.BytesPartialEncoder
}

func (e *partialEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, ab codec.ArrayBytes) error {
	strides := indexer.CStrides(e.rep.Shape)
	var writes []storage.OffsetBytes
	pos := 0
	ind.Indices(func(idx []uint64) {
		var lin uint64
		for i, v := range idx {
			lin += v * strides[i]
		}
		start := pos * e.elemSize
		elem := append([]byte(nil), ab.Bytes[start:start+e.elemSize]...)
		if e.endian != e.rep.DataType.Endian && e.endian != zarrtype.NativeEndian && e.elemSize > 1 {
			elem = swapEndian(elem, e.elemSize)
		}
		writes = append(writes, storage.OffsetBytes{Offset: lin * uint64(e.elemSize), Bytes: elem})
		pos++
	})
	return e.input.PartialEncodeMany(ctx, writes)
}

func (e *partialEncoder) Erase(ctx context.Context) error { return e.input.Erase(ctx) }

func (e *partialEncoder) SupportsPartialEncode() bool { return true }
