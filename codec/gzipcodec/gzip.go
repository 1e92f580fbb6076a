// Package gzipcodec implements the "gzip" bytes-to-bytes codec using the
// standard library's zlib implementation, the same approach the teacher
// corpus uses for DEFLATE-family filters (spec.md §6 "gzip" row).
package gzipcodec

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"

	"github.com/TuSKan/go-zarr/codec"
)

// Codec is the "gzip" bytes-to-bytes codec. Zarr's "gzip" codec is
// conventionally implemented with zlib-wrapped DEFLATE, matching both
// numcodecs and the teacher's own deflate filter.
type Codec struct {
	Level int
}

// New builds a gzip codec at the given compression level (0-9); 0 selects
// the implementation default.
func New(level int) *Codec {
	if level <= 0 {
		level = zlib.DefaultCompression
	}
	return &Codec{Level: level}
}

func (c *Codec) Encode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.Level)
	if err != nil {
		return nil, fmt.Errorf("gzip codec: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip codec: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip codec: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("gzip codec: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip codec: %w", err)
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
