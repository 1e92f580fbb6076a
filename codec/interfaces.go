package codec

import (
	"context"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
)

// ArrayPartialDecoder reads a sub-region of a chunk's decoded content
// without necessarily decoding the whole chunk.
type ArrayPartialDecoder interface {
	PartialDecode(ctx context.Context, ind indexer.Indexer) (ArrayBytes, error)
}

// ArrayPartialEncoder extends ArrayPartialDecoder with the ability to
// overwrite a sub-region.
type ArrayPartialEncoder interface {
	ArrayPartialDecoder
	PartialEncode(ctx context.Context, ind indexer.Indexer, bytes ArrayBytes) error
	Erase(ctx context.Context) error
	SupportsPartialEncode() bool
}

// BytesPartialDecoder reads byte ranges of an encoded value without
// necessarily reading the whole value.
type BytesPartialDecoder interface {
	PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error)
}

// BytesPartialEncoder extends BytesPartialDecoder with the ability to
// overwrite byte ranges, or erase the value outright.
type BytesPartialEncoder interface {
	BytesPartialDecoder
	PartialEncodeMany(ctx context.Context, writes []storage.OffsetBytes) error
	Erase(ctx context.Context) error
	SupportsPartialEncode() bool
}

// ArrayToArrayCodec transforms decoded array content to decoded array
// content, optionally changing shape or data type (e.g. transpose,
// squeeze, reshape, bitround).
type ArrayToArrayCodec interface {
	Encode(ctx context.Context, ab ArrayBytes, rep ChunkRepresentation, opts Options) (ArrayBytes, error)
	Decode(ctx context.Context, ab ArrayBytes, repIn ChunkRepresentation, opts Options) (ArrayBytes, error)
	// OutputRepresentation returns the ChunkRepresentation this codec
	// produces on Encode (and expects as repIn's counterpart on Decode's
	// input) given the representation on the outer (pre-encode) side.
	OutputRepresentation(repIn ChunkRepresentation) (ChunkRepresentation, error)
	PartialDecoderDecodesAll() bool
	PartialEncoderCapability() PartialEncoderCapability
	RecommendedConcurrency(rep ChunkRepresentation) RecommendedConcurrency
	// PartialDecoder builds this layer's partial decoder wrapping inner,
	// which reads in the codec's *output* (inner) representation.
	PartialDecoder(inner ArrayPartialDecoder, repOuter ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
	// PartialEncoder builds this layer's partial encoder wrapping inner.
	PartialEncoder(inner ArrayPartialEncoder, repOuter ChunkRepresentation, opts Options) (ArrayPartialEncoder, error)
}

// ArrayToBytesCodec transforms decoded array content to an encoded byte
// sequence, and back. Exactly one appears in a CodecChain.
type ArrayToBytesCodec interface {
	Encode(ctx context.Context, ab ArrayBytes, rep ChunkRepresentation, opts Options) ([]byte, error)
	Decode(ctx context.Context, raw []byte, rep ChunkRepresentation, opts Options) (ArrayBytes, error)
	EncodedRepresentation(rep ChunkRepresentation) (BytesRepresentation, error)
	PartialDecoderDecodesAll() bool
	PartialEncoderCapability() PartialEncoderCapability
	RecommendedConcurrency(rep ChunkRepresentation) RecommendedConcurrency
	PartialDecoder(input BytesPartialDecoder, rep ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
	PartialEncoder(input BytesPartialEncoder, rep ChunkRepresentation, opts Options) (ArrayPartialEncoder, error)
}

// BytesToBytesCodec transforms an encoded byte sequence to another encoded
// byte sequence (compressors, checksums).
type BytesToBytesCodec interface {
	Encode(ctx context.Context, raw []byte, opts Options) ([]byte, error)
	Decode(ctx context.Context, raw []byte, opts Options) ([]byte, error)
	EncodedRepresentation(in BytesRepresentation) (BytesRepresentation, error)
	PartialDecoderDecodesAll() bool
	PartialEncoderCapability() PartialEncoderCapability
	RecommendedConcurrency(in BytesRepresentation) RecommendedConcurrency
	PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error)
	PartialEncoder(input BytesPartialEncoder, opts Options) (BytesPartialEncoder, error)
}
