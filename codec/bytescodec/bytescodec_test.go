package bytescodec_test

import (
	"context"
	"testing"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bytescodec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrtype"
	"github.com/stretchr/testify/require"
)

func uint32Rep(shape []uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:     shape,
		DataType:  zarrtype.DataType{Name: "uint32", Size: zarrtype.Fixed(4), Endian: zarrtype.LittleEndian},
		FillValue: zarrtype.ZeroFillValue(4),
	}
}

// fakeBytesPartial is an in-memory BytesPartialEncoder backing a single key,
// standing in for storePartial in codec-level tests.
type fakeBytesPartial struct {
	data []byte
}

func (f *fakeBytesPartial) PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error) {
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

func TestEncodeDecodeRoundTripSameEndian(t *testing.T) {
	ctx := context.Background()
	c := bytescodec.New(zarrtype.LittleEndian)
	rep := uint32Rep([]uint64{2})
	ab := codec.NewFlenArrayBytes([]byte{1, 0, 0, 0, 2, 0, 0, 0})

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, raw)

	out, err := c.Decode(ctx, raw, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Bytes, out.Bytes)
}

func TestEncodeSwapsEndianWhenCodecDiffersFromDataType(t *testing.T) {
	ctx := context.Background()
	c := bytescodec.New(zarrtype.BigEndian)
	rep := uint32Rep([]uint64{1})
	ab := codec.NewFlenArrayBytes([]byte{1, 0, 0, 0})

	raw, err := c.Encode(ctx, ab, rep, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1}, raw)
}

func TestEncodeRejectsVlen(t *testing.T) {
	ctx := context.Background()
	c := bytescodec.New(zarrtype.LittleEndian)
	rep := uint32Rep([]uint64{1})
	ab, err := codec.NewVlenArrayBytes([]byte("a"), []uint64{0, 1})
	require.NoError(t, err)

	_, err = c.Encode(ctx, ab, rep, codec.Options{})
	require.Error(t, err)
}

func TestPartialDecoderReadsOnlyRequestedElements(t *testing.T) {
	ctx := context.Background()
	c := bytescodec.New(zarrtype.LittleEndian)
	rep := uint32Rep([]uint64{4})
	full := &fakeBytesPartial{data: []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}}

	pd, err := c.PartialDecoder(full, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{2}, []uint64{1})
	require.NoError(t, err)
	out, err := pd.PartialDecode(ctx, indexer.AsIndexer(sub))
	require.NoError(t, err)
	require.Equal(t, []byte{2, 0, 0, 0}, out.Bytes)
}

func TestPartialEncoderWritesElementInPlace(t *testing.T) {
	ctx := context.Background()
	c := bytescodec.New(zarrtype.LittleEndian)
	rep := uint32Rep([]uint64{4})
	backing := &fakeBytesPartial{data: make([]byte, 16)}

	pe, err := c.PartialEncoder(backing, rep, codec.Options{})
	require.NoError(t, err)

	sub, err := indexer.NewArraySubset([]uint64{1}, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, pe.PartialEncode(ctx, indexer.AsIndexer(sub), codec.NewFlenArrayBytes([]byte{9, 0, 0, 0})))

	require.Equal(t, []byte{0, 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, backing.data)
}
