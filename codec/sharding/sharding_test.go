package sharding_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bytescodec"
	"github.com/TuSKan/go-zarr/codec/sharding"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

// fakeBytesPartial is an in-memory BytesPartialEncoder, standing in for
// storePartial in codec-level tests.
type fakeBytesPartial struct {
	data []byte
}

func (f *fakeBytesPartial) PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error) {
	if f.data == nil {
		return make([][]byte, len(ranges)), false, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		if r.Kind != storage.FromStartKind {
			continue
		}
		end := uint64(len(f.data))
		if r.Length != nil && r.Offset+*r.Length < end {
			end = r.Offset + *r.Length
		}
		if r.Offset >= uint64(len(f.data)) {
			continue
		}
		out[i] = append([]byte(nil), f.data[r.Offset:end]...)
	}
	return out, true, nil
}

func (f *fakeBytesPartial) PartialEncodeMany(ctx context.Context, writes []storage.OffsetBytes) error {
	for _, w := range writes {
		end := int(w.Offset) + len(w.Bytes)
		if end > len(f.data) {
			grown := make([]byte, end)
			copy(grown, f.data)
			f.data = grown
		}
		copy(f.data[w.Offset:], w.Bytes)
	}
	return nil
}

func (f *fakeBytesPartial) Erase(ctx context.Context) error { f.data = nil; return nil }

func (f *fakeBytesPartial) SupportsPartialEncode() bool { return true }

func u8Rep(n uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:     []uint64{n},
		DataType:  zarrtype.DataType{Name: "uint8", Size: zarrtype.Fixed(1)},
		FillValue: zarrtype.ZeroFillValue(1),
	}
}

func newChain(t *testing.T) *codec.CodecChain {
	t.Helper()
	chain, err := codec.NewCodecChain(nil, []codec.ArrayToBytesCodec{bytescodec.New(zarrtype.LittleEndian)}, nil)
	require.NoError(t, err)
	return chain
}

func newShardCodec(t *testing.T) *sharding.Codec {
	t.Helper()
	inner := newChain(t)
	indexChain := newChain(t)
	return sharding.New([]uint64{2}, inner, indexChain, sharding.End)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)
	ab := codec.NewFlenArrayBytes([]byte{1, 2, 3, 4})

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)

	decoded, err := c.Decode(ctx, raw, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, decoded.Bytes)
}

func TestEncodeSkipsAllFillInnerChunks(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)
	ab := codec.NewFlenArrayBytes([]byte{0, 0, 3, 4})

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)

	decoded, err := c.Decode(ctx, raw, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, decoded.Bytes)
}

func TestPartialDecoderReadsOnlyOverlappingInnerChunks(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)
	ab := codec.NewFlenArrayBytes([]byte{1, 2, 3, 4})

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)

	backing := &fakeBytesPartial{data: raw}
	pd, err := c.PartialDecoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{2}, []uint64{2})
	require.NoError(t, err)
	out, err := pd.PartialDecode(ctx, indexer.AsIndexer(sub))
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4}, out.Bytes)
}

func TestPartialDecoderOnEmptyShardReturnsFill(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)
	backing := &fakeBytesPartial{}

	pd, err := c.PartialDecoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{0}, []uint64{4})
	require.NoError(t, err)
	out, err := pd.PartialDecode(ctx, indexer.AsIndexer(sub))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, out.Bytes)
}

func TestPartialEncoderRewritesShard(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)
	backing := &fakeBytesPartial{}

	pe, err := c.PartialEncoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{1}, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, pe.PartialEncode(ctx, indexer.AsIndexer(sub), codec.NewFlenArrayBytes([]byte{9})))

	decoded, err := c.Decode(ctx, backing.data, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 9, 0, 0}, decoded.Bytes)
}

// TestPartialEncoderPreservesUntouchedChunksAndAppends writes into only the
// first inner chunk and checks the second, already-encoded chunk survives
// unmodified: the native encoder appends the rewritten first
// chunk after the shard's existing data rather than touching the second.
func TestPartialEncoderPreservesUntouchedChunksAndAppends(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(4)

	raw, err := c.Encode(ctx, codec.NewFlenArrayBytes([]byte{1, 2, 3, 4}), rep, codec.Options{})
	require.NoError(t, err)
	backing := &fakeBytesPartial{data: raw}

	pe, err := c.PartialEncoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	// Straddles chunk 0 (elements 0-1): only element 0 is replaced, so the
	// prior value of element 1 must be read back and preserved.
	sub, err := indexer.NewArraySubset([]uint64{0}, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, pe.PartialEncode(ctx, indexer.AsIndexer(sub), codec.NewFlenArrayBytes([]byte{42})))

	decoded, err := c.Decode(ctx, backing.data, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, []byte{42, 2, 3, 4}, decoded.Bytes)
}

// TestPartialEncoderErasesShardWhenEverythingBecomesFill writes the fill
// value over the shard's only populated inner chunk and expects the
// underlying shard to be erased outright, not left as an all-absent index.
func TestPartialEncoderErasesShardWhenEverythingBecomesFill(t *testing.T) {
	ctx := context.Background()
	c := newShardCodec(t)
	rep := u8Rep(2)

	raw, err := c.Encode(ctx, codec.NewFlenArrayBytes([]byte{5, 6}), rep, codec.Options{})
	require.NoError(t, err)
	backing := &fakeBytesPartial{data: raw}

	pe, err := c.PartialEncoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{0}, []uint64{2})
	require.NoError(t, err)
	require.NoError(t, pe.PartialEncode(ctx, indexer.AsIndexer(sub), codec.NewFlenArrayBytes([]byte{0, 0})))

	require.Nil(t, backing.data)
}
