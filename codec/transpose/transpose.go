// Package transpose implements the "transpose" array-to-array codec,
// permuting a chunk's axis order before it reaches the array-to-bytes
// codec (spec.md §6 "transpose" row).
package transpose

import (
	"context"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// Codec permutes axes according to Order: output axis i is input axis
// Order[i].
type Codec struct {
	Order []int
}

// New validates order is a permutation of [0, n) and builds a Codec.
func New(order []int) (*Codec, error) {
	seen := make([]bool, len(order))
	for _, o := range order {
		if o < 0 || o >= len(order) || seen[o] {
			return nil, fmt.Errorf("%w: order %v is not a permutation", zarrerr.ErrCodec, order)
		}
		seen[o] = true
	}
	return &Codec{Order: append([]int(nil), order...)}, nil
}

func (c *Codec) inverse() []int {
	inv := make([]int, len(c.Order))
	for i, o := range c.Order {
		inv[o] = i
	}
	return inv
}

// OutputRepresentation permutes Shape by Order; data type is unchanged.
func (c *Codec) OutputRepresentation(repIn codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	if len(c.Order) != len(repIn.Shape) {
		return codec.ChunkRepresentation{}, fmt.Errorf("%w: transpose order has %d axes, chunk has %d", zarrerr.ErrCodec, len(c.Order), len(repIn.Shape))
	}
	shape := make([]uint64, len(repIn.Shape))
	for i, o := range c.Order {
		shape[i] = repIn.Shape[o]
	}
	out := repIn
	out.Shape = shape
	return out, nil
}

func permute(ab codec.ArrayBytes, repIn codec.ChunkRepresentation, order []int) (codec.ArrayBytes, error) {
	if ab.Kind == codec.VlenKind {
		return permuteVlen(ab, repIn, order)
	}
	elemSize, ok := repIn.DataType.Size.FixedSize()
	if !ok {
		return codec.ArrayBytes{}, fmt.Errorf("%w: transpose requires a fixed-size data type for Flen bytes", zarrerr.ErrUnsupportedDataType)
	}
	inStrides := indexer.CStrides(repIn.Shape)
	outShape := make([]uint64, len(repIn.Shape))
	for i, o := range order {
		outShape[i] = repIn.Shape[o]
	}
	outStrides := indexer.CStrides(outShape)
	out := make([]byte, len(ab.Bytes))
	sub, err := indexer.NewArraySubset(make([]uint64, len(outShape)), outShape)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	sub.Indices(func(outIdx []uint64) {
		var inLin, outLin uint64
		for i, v := range outIdx {
			outLin += v * outStrides[i]
		}
		for outAxis, inAxis := range order {
			inLin += outIdx[outAxis] * inStrides[inAxis]
		}
		copy(out[outLin*uint64(elemSize):(outLin+1)*uint64(elemSize)], ab.Bytes[inLin*uint64(elemSize):(inLin+1)*uint64(elemSize)])
	})
	return codec.NewFlenArrayBytes(out), nil
}

func permuteVlen(ab codec.ArrayBytes, repIn codec.ChunkRepresentation, order []int) (codec.ArrayBytes, error) {
	inStrides := indexer.CStrides(repIn.Shape)
	outShape := make([]uint64, len(repIn.Shape))
	for i, o := range order {
		outShape[i] = repIn.Shape[o]
	}
	outStrides := indexer.CStrides(outShape)
	n := repIn.NumElements()
	elems := make([][]byte, n)
	sub, err := indexer.NewArraySubset(make([]uint64, len(outShape)), outShape)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	sub.Indices(func(outIdx []uint64) {
		var inLin, outLin uint64
		for i, v := range outIdx {
			outLin += v * outStrides[i]
		}
		for outAxis, inAxis := range order {
			inLin += outIdx[outAxis] * inStrides[inAxis]
		}
		elems[outLin] = ab.Element(int(inLin))
	})
	var outBytes []byte
	offsets := make([]uint64, n+1)
	for i, e := range elems {
		outBytes = append(outBytes, e...)
		offsets[i+1] = uint64(len(outBytes))
	}
	return codec.ArrayBytes{Kind: codec.VlenKind, Bytes: outBytes, Offsets: offsets}, nil
}

// Encode permutes ab's elements from the input (pre-transpose) axis order
// to the output order.
func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	return permute(ab, rep, c.Order)
}

// Decode applies the inverse permutation.
func (c *Codec) Decode(ctx context.Context, ab codec.ArrayBytes, repIn codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	outRep, err := c.OutputRepresentation(repIn)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return permute(ab, outRep, c.inverse())
}

func (c *Codec) PartialDecoderDecodesAll() bool { return true }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: false}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	return codec.SerialConcurrency()
}

// PartialDecoder has no native strategy: transposition touches every byte,
// so the returned wrapper decodes the whole chunk through inner, undoes the
// permutation, and extracts the requested region (spec.md §4.3).
func (c *Codec) PartialDecoder(inner codec.ArrayPartialDecoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &wrappedDecoder{codec: c, inner: inner, repOuter: repOuter}, nil
}

func (c *Codec) PartialEncoder(inner codec.ArrayPartialEncoder, repOuter codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return &wrappedEncoder{wrappedDecoder: &wrappedDecoder{codec: c, inner: inner, repOuter: repOuter}, inner: inner}, nil
}

type wrappedDecoder struct {
	codec    *Codec
	inner    codec.ArrayPartialDecoder
	repOuter codec.ChunkRepresentation
}

func (w *wrappedDecoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	outRep, err := w.codec.OutputRepresentation(w.repOuter)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	full, err := w.inner.PartialDecode(ctx, indexer.AsIndexer(outRep.FullSubset()))
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	decoded, err := permute(full, outRep, w.codec.inverse())
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return codec.ExtractArrayBytes(decoded, w.repOuter, ind)
}

type wrappedEncoder struct {
	*wrappedDecoder
	inner codec.ArrayPartialEncoder
}

func (w *wrappedEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, ab codec.ArrayBytes) error {
	full, err := w.PartialDecode(ctx, indexer.AsIndexer(w.repOuter.FullSubset()))
	if err != nil {
		return err
	}
	updated, err := codec.UpdateArrayBytes(full, w.repOuter, ind, ab)
	if err != nil {
		return err
	}
	outRep, err := w.codec.OutputRepresentation(w.repOuter)
	if err != nil {
		return err
	}
	transposed, err := permute(updated, w.repOuter, w.codec.Order)
	if err != nil {
		return err
	}
	return w.inner.PartialEncode(ctx, indexer.AsIndexer(outRep.FullSubset()), transposed)
}

func (w *wrappedEncoder) Erase(ctx context.Context) error { return w.inner.Erase(ctx) }

func (w *wrappedEncoder) SupportsPartialEncode() bool { return false }
