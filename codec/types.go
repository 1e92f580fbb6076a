// Package codec defines the codec trait groups (ArrayToArray, ArrayToBytes,
// BytesToBytes), the CodecChain that composes them, the partial
// decoder/encoder contracts, and the generic default-partial adapter that
// lifts any non-partial-capable codec into one (spec.md §4.3).
package codec

import (
	"fmt"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// ChunkRepresentation is the shape, data type, and fill value a codec
// operates against for one chunk (or inner chunk).
type ChunkRepresentation struct {
	Shape     []uint64
	DataType  zarrtype.DataType
	FillValue zarrtype.FillValue
}

// NumElements returns the product of Shape.
func (r ChunkRepresentation) NumElements() uint64 {
	n := uint64(1)
	for _, d := range r.Shape {
		n *= d
	}
	return n
}

// FullSubset returns an indexer.ArraySubset covering the whole
// representation.
func (r ChunkRepresentation) FullSubset() indexer.ArraySubset {
	start := make([]uint64, len(r.Shape))
	return indexer.ArraySubset{Start: start, Shape: append([]uint64(nil), r.Shape...)}
}

// BytesRepresentationKind distinguishes the three ways a codec's encoded
// output size can be known.
type BytesRepresentationKind int

const (
	// Fixed means the encoded size is the same for every input of the
	// given ChunkRepresentation, known without looking at any data.
	Fixed BytesRepresentationKind = iota
	// Bounded means the encoded size cannot exceed Size (e.g. an
	// uncompressed upper bound for a compressor).
	Bounded
	// Unbounded means no useful upper bound is known.
	Unbounded
)

// BytesRepresentation describes a codec's encoded output size.
type BytesRepresentation struct {
	Kind BytesRepresentationKind
	Size uint64 // valid when Kind is Fixed or Bounded
}

// FixedRepresentation builds a Fixed BytesRepresentation.
func FixedRepresentation(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: Fixed, Size: n}
}

// BoundedRepresentation builds a Bounded BytesRepresentation.
func BoundedRepresentation(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: Bounded, Size: n}
}

// UnboundedRepresentation builds an Unbounded BytesRepresentation.
func UnboundedRepresentation() BytesRepresentation { return BytesRepresentation{Kind: Unbounded} }

// RecommendedConcurrency is the range of useful parallelism a codec
// suggests for a given ChunkRepresentation.
type RecommendedConcurrency struct {
	Min, Max int
}

// SerialConcurrency is the RecommendedConcurrency of a codec with no
// internal parallelism.
func SerialConcurrency() RecommendedConcurrency { return RecommendedConcurrency{Min: 1, Max: 1} }

// PartialEncoderCapability describes whether a codec can overwrite a
// bounded sub-region without a decode-all/re-encode-all round trip.
type PartialEncoderCapability struct {
	PartialEncode bool
}

// Options carries per-call tuning through codec Encode/Decode and the
// partial decoder/encoder constructors. It is deliberately small; broader
// runtime configuration (logging, builder ergonomics) is out of scope
// (spec.md §1).
type Options struct {
	Concurrency CodecOptions
}

// ArrayBytesKind distinguishes the fixed- and variable-length payload
// shapes an ArrayBytes can carry.
type ArrayBytesKind int

const (
	FlenKind ArrayBytesKind = iota
	VlenKind
)

// ArrayBytes is a decoded chunk payload: either a flat fixed-size-element
// buffer (Flen) or a variable-length buffer with an offsets table (Vlen).
type ArrayBytes struct {
	Kind    ArrayBytesKind
	Bytes   []byte
	Offsets []uint64 // valid when Kind == VlenKind
}

// NewFlenArrayBytes builds a fixed-size ArrayBytes.
func NewFlenArrayBytes(b []byte) ArrayBytes { return ArrayBytes{Kind: FlenKind, Bytes: b} }

// NewVlenArrayBytes builds a variable-size ArrayBytes. offsets must satisfy
// spec.md §3: strictly non-decreasing, offsets[0]==0, offsets[last]==len(bytes).
func NewVlenArrayBytes(b []byte, offsets []uint64) (ArrayBytes, error) {
	if len(offsets) == 0 || offsets[0] != 0 || offsets[len(offsets)-1] != uint64(len(b)) {
		return ArrayBytes{}, fmt.Errorf("%w: invalid vlen offsets table", zarrerr.ErrInvalidArraySubset)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return ArrayBytes{}, fmt.Errorf("%w: vlen offsets must be non-decreasing", zarrerr.ErrInvalidArraySubset)
		}
	}
	return ArrayBytes{Kind: VlenKind, Bytes: b, Offsets: offsets}, nil
}

// NumElements returns the element count implied by the representation: for
// Vlen it is len(Offsets)-1; for Flen it is derived by the caller (the
// ArrayBytes itself does not know the element size).
func (a ArrayBytes) NumElements() (int, bool) {
	if a.Kind == VlenKind {
		return len(a.Offsets) - 1, true
	}
	return 0, false
}

// Element returns the i'th variable-length element's bytes.
func (a ArrayBytes) Element(i int) []byte {
	return a.Bytes[a.Offsets[i]:a.Offsets[i+1]]
}
