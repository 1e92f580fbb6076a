// Package vlen implements the array-to-bytes codecs for variable-length
// data types: vlen-bytes, vlen-utf8, and the general vlen envelope
// (spec.md §6 "vlen-*" rows). The wire format is a 4-byte little-endian
// element count, followed by each element's 4-byte little-endian length
// and raw bytes, mirroring the layout numcodecs' VLenBytes/VLenUTF8 use.
package vlen

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// Codec is the array-to-bytes codec for Vlen-kind ArrayBytes.
type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) ([]byte, error) {
	if ab.Kind != codec.VlenKind {
		return nil, fmt.Errorf("%w: vlen codec requires variable-length array bytes", zarrerr.ErrUnsupportedDataType)
	}
	n, _ := ab.NumElements()
	var buf []byte
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(n))
	buf = append(buf, header...)
	lenBuf := make([]byte, 4)
	for i := 0; i < int(n); i++ {
		elem := ab.Element(i)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(elem)))
		buf = append(buf, lenBuf...)
		buf = append(buf, elem...)
	}
	return buf, nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	if len(raw) < 4 {
		return codec.ArrayBytes{}, fmt.Errorf("%w: vlen codec: input too short", zarrerr.ErrCodec)
	}
	n := binary.LittleEndian.Uint32(raw)
	pos := 4
	offsets := make([]uint64, n+1)
	var bytes []byte
	for i := uint32(0); i < n; i++ {
		if pos+4 > len(raw) {
			return codec.ArrayBytes{}, fmt.Errorf("%w: vlen codec: truncated length header", zarrerr.ErrCodec)
		}
		length := int(binary.LittleEndian.Uint32(raw[pos:]))
		pos += 4
		if pos+length > len(raw) {
			return codec.ArrayBytes{}, fmt.Errorf("%w: vlen codec: truncated element", zarrerr.ErrCodec)
		}
		bytes = append(bytes, raw[pos:pos+length]...)
		pos += length
		offsets[i+1] = uint64(len(bytes))
	}
	return codec.ArrayBytes{Kind: codec.VlenKind, Bytes: bytes, Offsets: offsets}, nil
}

func (c *Codec) EncodedRepresentation(rep codec.ChunkRepresentation) (codec.BytesRepresentation, error) {
	return codec.UnboundedRepresentation(), nil
}

// PartialDecoderDecodesAll is true: element boundaries are only known after
// a full scan, so there is no cheaper native partial strategy.
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
