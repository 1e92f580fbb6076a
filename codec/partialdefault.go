package codec

import (
	"context"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
)

// DefaultArrayPartialDecoder wraps the Decode of an ArrayToBytesCodec (or of
// a whole CodecChain) behind the ArrayPartialDecoder interface by decoding the
// whole chunk on every call and extracting the requested region
// (spec.md §4.3: every codec must support partial decode, falling back to
// "full_decode().extract(I)" when it has no cheaper native strategy).
type DefaultArrayPartialDecoder struct {
	Inner BytesPartialDecoder
	Chain interface {
		Decode(ctx context.Context, raw []byte, rep ChunkRepresentation, opts Options) (ArrayBytes, error)
	}
	Rep  ChunkRepresentation
	Opts Options
}

func (d *DefaultArrayPartialDecoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (ArrayBytes, error) {
	raws, found, err := d.Inner.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return ArrayBytes{}, err
	}
	if !found {
		full, ferr := FillArrayBytes(d.Rep)
		if ferr != nil {
			return ArrayBytes{}, ferr
		}
		return ExtractArrayBytes(full, d.Rep, ind)
	}
	full, err := d.Chain.Decode(ctx, raws[0], d.Rep, d.Opts)
	if err != nil {
		return ArrayBytes{}, err
	}
	return ExtractArrayBytes(full, d.Rep, ind)
}

// DefaultArrayPartialEncoder is DefaultArrayPartialDecoder plus a
// read-modify-write PartialEncode: decode the whole chunk (or start from
// fill value if absent), overwrite the requested region, re-encode, and
// write the whole chunk back (spec.md §4.3's documented default strategy;
// §4.4's sharding codec replaces this with a cheaper native encoder).
type DefaultArrayPartialEncoder struct {
	Inner BytesPartialEncoder
	Chain interface {
		Decode(ctx context.Context, raw []byte, rep ChunkRepresentation, opts Options) (ArrayBytes, error)
		Encode(ctx context.Context, ab ArrayBytes, rep ChunkRepresentation, opts Options) ([]byte, error)
	}
	Rep  ChunkRepresentation
	Opts Options
}

func (d *DefaultArrayPartialEncoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (ArrayBytes, error) {
	dec := &DefaultArrayPartialDecoder{Inner: d.Inner, Chain: d.Chain, Rep: d.Rep, Opts: d.Opts}
	return dec.PartialDecode(ctx, ind)
}

func (d *DefaultArrayPartialEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, newData ArrayBytes) error {
	raws, found, err := d.Inner.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return err
	}
	var full ArrayBytes
	if !found {
		full, err = FillArrayBytes(d.Rep)
		if err != nil {
			return err
		}
	} else {
		full, err = d.Chain.Decode(ctx, raws[0], d.Rep, d.Opts)
		if err != nil {
			return err
		}
	}
	updated, err := UpdateArrayBytes(full, d.Rep, ind, newData)
	if err != nil {
		return err
	}
	raw, err := d.Chain.Encode(ctx, updated, d.Rep, d.Opts)
	if err != nil {
		return err
	}
	if err := d.Inner.Erase(ctx); err != nil {
		return err
	}
	return d.Inner.PartialEncodeMany(ctx, []storage.OffsetBytes{{Offset: 0, Bytes: raw}})
}

func (d *DefaultArrayPartialEncoder) Erase(ctx context.Context) error { return d.Inner.Erase(ctx) }

func (d *DefaultArrayPartialEncoder) SupportsPartialEncode() bool { return false }

// DefaultBytesPartialDecoder adapts a BytesToBytesCodec's Decode to
// BytesPartialDecoder by decoding the whole value and slicing out the
// requested ranges in memory.
type DefaultBytesPartialDecoder struct {
	Inner BytesPartialDecoder
	Codec interface {
		Decode(ctx context.Context, raw []byte, opts Options) ([]byte, error)
	}
	Opts Options
}

func (d *DefaultBytesPartialDecoder) PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error) {
	raws, found, err := d.Inner.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil || !found {
		return nil, found, err
	}
	full, err := d.Codec.Decode(ctx, raws[0], d.Opts)
	if err != nil {
		return nil, false, err
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		out[i] = sliceRange(full, r)
	}
	return out, true, nil
}

// DefaultBytesPartialEncoder extends DefaultBytesPartialDecoder with a
// read-modify-write PartialEncodeMany for BytesToBytesCodecs (checksum and
// compressor codecs have no native partial-write strategy; spec.md's codec
// metadata table marks them full-chunk-rewrite on partial update).
type DefaultBytesPartialEncoder struct {
	Inner BytesPartialEncoder
	Codec interface {
		Decode(ctx context.Context, raw []byte, opts Options) ([]byte, error)
		Encode(ctx context.Context, raw []byte, opts Options) ([]byte, error)
	}
	Opts Options
}

func (d *DefaultBytesPartialEncoder) PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error) {
	dec := &DefaultBytesPartialDecoder{Inner: d.Inner, Codec: d.Codec, Opts: d.Opts}
	return dec.PartialDecodeMany(ctx, ranges)
}

func (d *DefaultBytesPartialEncoder) PartialEncodeMany(ctx context.Context, writes []storage.OffsetBytes) error {
	raws, found, err := d.Inner.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return err
	}
	var full []byte
	if found {
		full, err = d.Codec.Decode(ctx, raws[0], d.Opts)
		if err != nil {
			return err
		}
	}
	maxEnd := len(full)
	for _, w := range writes {
		if end := int(w.Offset) + len(w.Bytes); end > maxEnd {
			maxEnd = end
		}
	}
	if maxEnd > len(full) {
		grown := make([]byte, maxEnd)
		copy(grown, full)
		full = grown
	}
	for _, w := range writes {
		copy(full[w.Offset:], w.Bytes)
	}
	raw, err := d.Codec.Encode(ctx, full, d.Opts)
	if err != nil {
		return err
	}
	if err := d.Inner.Erase(ctx); err != nil {
		return err
	}
	return d.Inner.PartialEncodeMany(ctx, []storage.OffsetBytes{{Offset: 0, Bytes: raw}})
}

func (d *DefaultBytesPartialEncoder) Erase(ctx context.Context) error { return d.Inner.Erase(ctx) }

func (d *DefaultBytesPartialEncoder) SupportsPartialEncode() bool { return false }

func sliceRange(full []byte, r storage.ByteRange) []byte {
	var start, end int
	switch r.Kind {
	case storage.SuffixKind:
		length := int(*r.Length)
		start = len(full) - length
		if start < 0 {
			start = 0
		}
		end = len(full)
	default:
		start = int(r.Offset)
		if start > len(full) {
			start = len(full)
		}
		if r.Length != nil {
			end = start + int(*r.Length)
		} else {
			end = len(full)
		}
	}
	if end > len(full) {
		end = len(full)
	}
	if end < start {
		end = start
	}
	out := make([]byte, end-start)
	copy(out, full[start:end])
	return out
}
