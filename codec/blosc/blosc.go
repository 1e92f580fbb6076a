// Package blosc implements the "blosc" bytes-to-bytes codec on top of
// mrjoshuak/go-blosc, the same binding the teacher corpus's dataset reader
// uses to decompress blosc-compressed chunks (spec.md §6 "blosc" row).
package blosc

import (
	"context"
	"fmt"

	goblosc "github.com/mrjoshuak/go-blosc"

	"github.com/TuSKan/go-zarr/codec"
)

// Shuffle selects blosc's byte-shuffle pre-filter.
type Shuffle int

const (
	NoShuffle Shuffle = iota
	ByteShuffle
	BitShuffle
)

// Codec is the "blosc" bytes-to-bytes codec.
type Codec struct {
	Level    int
	Shuffle  Shuffle
	TypeSize int
}

// New builds a blosc codec. typeSize is the element size in bytes, used by
// blosc's shuffle filter; it is 1 for codecs preceded by a "bytes" codec
// whose data type is itself the shuffle granularity.
func New(level int, shuffle Shuffle, typeSize int) *Codec {
	if typeSize < 1 {
		typeSize = 1
	}
	return &Codec{Level: level, Shuffle: shuffle, TypeSize: typeSize}
}

func (c *Codec) Encode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	out, err := goblosc.Compress(c.Level, int(c.Shuffle), c.TypeSize, raw)
	if err != nil {
		return nil, fmt.Errorf("blosc codec: %w", err)
	}
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	out, err := goblosc.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("blosc codec: %w", err)
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
