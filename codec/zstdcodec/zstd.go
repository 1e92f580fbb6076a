// Package zstdcodec implements the "zstd" bytes-to-bytes codec on top of
// klauspost/compress/zstd, the compressor the teacher corpus's dataset
// reader already links against (spec.md §6 "zstd" row).
package zstdcodec

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/TuSKan/go-zarr/codec"
)

// Codec is the "zstd" bytes-to-bytes codec.
type Codec struct {
	Level    zstd.EncoderLevel
	Checksum bool
}

// New builds a zstd codec at the given compression level (1-22, 0 selects
// the implementation default) with an optional embedded zstd frame
// checksum.
func New(level int, checksum bool) *Codec {
	lvl := zstd.SpeedDefault
	if level > 0 {
		lvl = zstd.EncoderLevelFromZstd(level)
	}
	return &Codec{Level: lvl, Checksum: checksum}
}

func (c *Codec) Encode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.Level), zstd.WithEncoderCRC(c.Checksum))
	if err != nil {
		return nil, fmt.Errorf("zstd codec: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd codec: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd codec: %w", err)
	}
	return out, nil
}

func (c *Codec) EncodedRepresentation(in codec.BytesRepresentation) (codec.BytesRepresentation, error) {
	return codec.UnboundedRepresentation(), nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return true }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: false}
}

func (c *Codec) RecommendedConcurrency(in codec.BytesRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

func (c *Codec) PartialDecoder(input codec.BytesPartialDecoder, opts codec.Options) (codec.BytesPartialDecoder, error) {
	return &codec.DefaultBytesPartialDecoder{Inner: input, Codec: c, Opts: opts}, nil
}

func (c *Codec) PartialEncoder(input codec.BytesPartialEncoder, opts codec.Options) (codec.BytesPartialEncoder, error) {
	return &codec.DefaultBytesPartialEncoder{Inner: input, Codec: c, Opts: opts}, nil
}
