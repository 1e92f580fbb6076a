// Package checksum implements the bytes-to-bytes checksum codecs
// (crc32c, adler32, fletcher32): each appends a trailing checksum on
// encode and verifies/strips it on decode (spec.md §6 checksum rows).
// Fletcher32 is grounded on the teacher corpus's HDF5 filter pipeline,
// which implements the same algorithm for the same purpose.
package checksum

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"hash/crc32"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// Kind selects which checksum algorithm a Codec computes.
type Kind int

const (
	CRC32C Kind = iota
	Adler32
	Fletcher32
)

// Codec is a bytes-to-bytes codec appending a 4-byte checksum trailer.
type Codec struct {
	Kind Kind
}

func New(kind Kind) *Codec { return &Codec{Kind: kind} }

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

func (c *Codec) sum(data []byte) uint32 {
	switch c.Kind {
	case CRC32C:
		return crc32.Checksum(data, crc32cTable)
	case Adler32:
		return adler32.Checksum(data)
	default:
		return fletcher32(data)
	}
}

// fletcher32 is the same word-at-a-time Fletcher-32 algorithm the teacher
// corpus's HDF5 filter pipeline uses for its checksum filter.
func fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	n := len(data)
	i := 0
	for ; i+1 < n; i += 2 {
		word := uint32(data[i]) | uint32(data[i+1])<<8
		sum1 = (sum1 + word) % 65535
		sum2 = (sum2 + sum1) % 65535
	}
	if i < n {
		sum1 = (sum1 + uint32(data[i])) % 65535
		sum2 = (sum2 + sum1) % 65535
	}
	return (sum2 << 16) | sum1
}

func (c *Codec) Encode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	out := make([]byte, len(raw)+4)
	copy(out, raw)
	binary.LittleEndian.PutUint32(out[len(raw):], c.sum(raw))
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, raw []byte, opts codec.Options) ([]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: checksum codec: input too short", zarrerr.ErrCodec)
	}
	data := raw[:len(raw)-4]
	stored := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	if got := c.sum(data); got != stored {
		return nil, fmt.Errorf("%w: checksum mismatch (stored=0x%08x, computed=0x%08x)", zarrerr.ErrCodec, stored, got)
	}
	return data, nil
}

func (c *Codec) EncodedRepresentation(in codec.BytesRepresentation) (codec.BytesRepresentation, error) {
	if in.Kind == codec.Fixed {
		return codec.FixedRepresentation(in.Size + 4), nil
	}
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
