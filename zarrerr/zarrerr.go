// Package zarrerr defines the sentinel error taxonomy shared across the
// indexer, chunk grid, codec, cache, and array packages.
//
// Errors are wrapped with fmt.Errorf("...: %w", sentinel) at the site that
// detects the problem, so callers can both errors.Is against the sentinel
// and read a human-readable message with the offending values.
package zarrerr

import "errors"

var (
	// ErrInvalidIndexer covers dimensionality mismatches, out-of-bounds
	// indices, and incompatible indexer lengths.
	ErrInvalidIndexer = errors.New("invalid indexer")

	// ErrInvalidChunkGridIndices covers chunk-geometry violations: chunk
	// indices outside the grid, or a grid that cannot tile the array shape.
	ErrInvalidChunkGridIndices = errors.New("invalid chunk grid indices")

	// ErrInvalidArraySubset covers malformed or out-of-bounds array subsets.
	ErrInvalidArraySubset = errors.New("invalid array subset")

	// ErrInvalidChunkSubset covers a chunk subset that does not fit within
	// its owning chunk's shape.
	ErrInvalidChunkSubset = errors.New("invalid chunk subset")

	// ErrCodec covers decode failure, malformed shard index, unsupported
	// codec configuration, and partial access attempted on a codec whose
	// output size is not fixed.
	ErrCodec = errors.New("codec error")

	// ErrStorage covers transport-level failure, invalid metadata at a
	// given key, and writes attempted against a read-only backend.
	ErrStorage = errors.New("storage error")

	// ErrUnsupportedDataType signals a data type the codec or array cannot
	// operate on.
	ErrUnsupportedDataType = errors.New("unsupported data type")

	// ErrUnsupportedMethod signals an operation that is not applicable to
	// the receiver, e.g. an inner-chunk byte range request on a
	// non-sharded array.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrAdditionalField signals metadata carrying an unknown field marked
	// must_understand.
	ErrAdditionalField = errors.New("additional field unsupported")

	// ErrMultipleArrayToBytesCodecs signals a codec chain under
	// construction with more than one array-to-bytes codec.
	ErrMultipleArrayToBytesCodecs = errors.New("multiple array-to-bytes codecs")

	// ErrKeyNotFound signals a storage key absent from the backend. It is
	// distinct from ErrStorage because callers frequently want to treat a
	// miss as "return fill value" rather than as a failure.
	ErrKeyNotFound = errors.New("key not found")
)
