package codec

import (
	"context"
	"fmt"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// CodecChain composes an ordered pipeline of array-to-array codecs, exactly
// one array-to-bytes codec, and an ordered pipeline of bytes-to-bytes
// codecs into a single ArrayToBytes-shaped operation (spec.md §4.3).
type CodecChain struct {
	ArrayToArray []ArrayToArrayCodec
	ArrayToBytes ArrayToBytesCodec
	BytesToBytes []BytesToBytesCodec
}

// NewCodecChain validates and builds a CodecChain. arrayToBytesCandidates
// must contain exactly one codec; more than one is a hard error
// (spec.md §4.3, "MultipleArrayToBytesCodecs") as can arise converting V2
// metadata, where the array-to-bytes role is implicit rather than a single
// named codec.
func NewCodecChain(arrayToArray []ArrayToArrayCodec, arrayToBytesCandidates []ArrayToBytesCodec, bytesToBytes []BytesToBytesCodec) (*CodecChain, error) {
	if len(arrayToBytesCandidates) != 1 {
		return nil, fmt.Errorf("%w: got %d array-to-bytes codecs, want exactly 1", zarrerr.ErrMultipleArrayToBytesCodecs, len(arrayToBytesCandidates))
	}
	return &CodecChain{
		ArrayToArray: arrayToArray,
		ArrayToBytes: arrayToBytesCandidates[0],
		BytesToBytes: bytesToBytes,
	}, nil
}

// innerRepresentation threads repOuter forward through the array-to-array
// codecs to the representation the array-to-bytes codec sees.
func (c *CodecChain) innerRepresentation(repOuter ChunkRepresentation) (ChunkRepresentation, error) {
	rep := repOuter
	for _, a2a := range c.ArrayToArray {
		var err error
		rep, err = a2a.OutputRepresentation(rep)
		if err != nil {
			return ChunkRepresentation{}, err
		}
	}
	return rep, nil
}

// Encode runs array-to-array codecs left-to-right, the array-to-bytes
// codec, then bytes-to-bytes codecs left-to-right.
func (c *CodecChain) Encode(ctx context.Context, ab ArrayBytes, repOuter ChunkRepresentation, opts Options) ([]byte, error) {
	rep := repOuter
	cur := ab
	for _, a2a := range c.ArrayToArray {
		var err error
		cur, err = a2a.Encode(ctx, cur, rep, opts)
		if err != nil {
			return nil, err
		}
		rep, err = a2a.OutputRepresentation(rep)
		if err != nil {
			return nil, err
		}
	}
	raw, err := c.ArrayToBytes.Encode(ctx, cur, rep, opts)
	if err != nil {
		return nil, err
	}
	for _, b2b := range c.BytesToBytes {
		raw, err = b2b.Encode(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// Decode runs the reverse of Encode.
func (c *CodecChain) Decode(ctx context.Context, raw []byte, repOuter ChunkRepresentation, opts Options) (ArrayBytes, error) {
	rep, err := c.innerRepresentation(repOuter)
	if err != nil {
		return ArrayBytes{}, err
	}
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		raw, err = c.BytesToBytes[i].Decode(ctx, raw, opts)
		if err != nil {
			return ArrayBytes{}, err
		}
	}
	cur, err := c.ArrayToBytes.Decode(ctx, raw, rep, opts)
	if err != nil {
		return ArrayBytes{}, err
	}
	// Walk array-to-array codecs right-to-left, recomputing the outer
	// representation each step backs into.
	reps := make([]ChunkRepresentation, len(c.ArrayToArray)+1)
	reps[0] = repOuter
	r := repOuter
	for i, a2a := range c.ArrayToArray {
		var err error
		r, err = a2a.OutputRepresentation(r)
		if err != nil {
			return ArrayBytes{}, err
		}
		reps[i+1] = r
	}
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		cur, err = c.ArrayToArray[i].Decode(ctx, cur, reps[i], opts)
		if err != nil {
			return ArrayBytes{}, err
		}
	}
	return cur, nil
}

// EncodedRepresentation threads repOuter through the whole chain to
// describe the final encoded byte size.
func (c *CodecChain) EncodedRepresentation(repOuter ChunkRepresentation) (BytesRepresentation, error) {
	rep, err := c.innerRepresentation(repOuter)
	if err != nil {
		return BytesRepresentation{}, err
	}
	out, err := c.ArrayToBytes.EncodedRepresentation(rep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	for _, b2b := range c.BytesToBytes {
		out, err = b2b.EncodedRepresentation(out)
		if err != nil {
			return BytesRepresentation{}, err
		}
	}
	return out, nil
}

// RecommendedConcurrency reports the array-to-bytes codec's recommendation,
// the layer that usually dominates the pipeline's cost.
func (c *CodecChain) RecommendedConcurrency(repOuter ChunkRepresentation) RecommendedConcurrency {
	rep, err := c.innerRepresentation(repOuter)
	if err != nil {
		return SerialConcurrency()
	}
	return c.ArrayToBytes.RecommendedConcurrency(rep)
}

// PartialDecoderDecodesAll reports whether any codec in the chain forces a
// full decode to service a partial read: if the array-to-bytes codec does,
// or any bytes-to-bytes codec does, the whole chain does.
func (c *CodecChain) PartialDecoderDecodesAll() bool {
	if c.ArrayToBytes.PartialDecoderDecodesAll() {
		return true
	}
	for _, b2b := range c.BytesToBytes {
		if b2b.PartialDecoderDecodesAll() {
			return true
		}
	}
	for _, a2a := range c.ArrayToArray {
		if a2a.PartialDecoderDecodesAll() {
			return true
		}
	}
	return false
}

// PartialDecoder threads a bytes-level partial decoder for the chain's
// encoded output up through the bytes-to-bytes chain, the array-to-bytes
// codec, then the array-to-array chain (spec.md §4.3).
func (c *CodecChain) PartialDecoder(base BytesPartialDecoder, repOuter ChunkRepresentation, opts Options) (ArrayPartialDecoder, error) {
	cur := base
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		var err error
		cur, err = c.BytesToBytes[i].PartialDecoder(cur, opts)
		if err != nil {
			return nil, err
		}
	}
	rep, err := c.innerRepresentation(repOuter)
	if err != nil {
		return nil, err
	}
	arrCur, err := c.ArrayToBytes.PartialDecoder(cur, rep, opts)
	if err != nil {
		return nil, err
	}
	reps := make([]ChunkRepresentation, len(c.ArrayToArray)+1)
	r := repOuter
	for i, a2a := range c.ArrayToArray {
		r, err = a2a.OutputRepresentation(r)
		if err != nil {
			return nil, err
		}
		reps[i+1] = r
	}
	reps[0] = repOuter
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		arrCur, err = c.ArrayToArray[i].PartialDecoder(arrCur, reps[i], opts)
		if err != nil {
			return nil, err
		}
	}
	return arrCur, nil
}

// PartialEncoder mirrors PartialDecoder's threading for writes.
func (c *CodecChain) PartialEncoder(base BytesPartialEncoder, repOuter ChunkRepresentation, opts Options) (ArrayPartialEncoder, error) {
	// Each bytes-to-bytes codec supplies its own PartialEncoder; the
	// checksum and compressor codecs in this module all return
	// DefaultBytesPartialEncoder, a full-value rewrite on partial update
	// (spec.md's codec metadata table treats checksum/compressor codecs as
	// full-chunk-rewrite on partial update).
	var cur BytesPartialEncoder = base
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		var err error
		cur, err = c.BytesToBytes[i].PartialEncoder(cur, opts)
		if err != nil {
			return nil, err
		}
	}
	rep, err := c.innerRepresentation(repOuter)
	if err != nil {
		return nil, err
	}
	arrCur, err := c.ArrayToBytes.PartialEncoder(cur, rep, opts)
	if err != nil {
		return nil, err
	}
	reps := make([]ChunkRepresentation, len(c.ArrayToArray)+1)
	r := repOuter
	for i, a2a := range c.ArrayToArray {
		r, err = a2a.OutputRepresentation(r)
		if err != nil {
			return nil, err
		}
		reps[i+1] = r
	}
	reps[0] = repOuter
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		arrCur, err = c.ArrayToArray[i].PartialEncoder(arrCur, reps[i], opts)
		if err != nil {
			return nil, err
		}
	}
	return arrCur, nil
}
