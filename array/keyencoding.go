package array

import (
	"strconv"
	"strings"
)

// ChunkKeyEncodingKind selects between the V3 "default" layout (a literal
// "c" node before the indices) and the V2 layout (no "c" node).
type ChunkKeyEncodingKind int

const (
	// DefaultKeyEncoding is Zarr V3's default chunk key encoding: "c" joined
	// with each chunk index by Separator, e.g. "c/1/2" for separator "/".
	DefaultKeyEncoding ChunkKeyEncodingKind = iota
	// V2KeyEncoding is Zarr V2's chunk key encoding: the chunk indices
	// joined by Separator with no leading node, e.g. "1.2" for separator ".".
	V2KeyEncoding
)

// ChunkKeyEncoding maps a chunk's grid indices to the storage key segment
// beneath an array's path (spec.md §2, chunk key encoding).
type ChunkKeyEncoding struct {
	Kind      ChunkKeyEncodingKind
	Separator string
}

// DefaultV3Encoding is Zarr V3's default: "c" node, "/" separator.
func DefaultV3Encoding() ChunkKeyEncoding {
	return ChunkKeyEncoding{Kind: DefaultKeyEncoding, Separator: "/"}
}

// DefaultV2Encoding is Zarr V2's default: no "c" node, "." separator.
func DefaultV2Encoding() ChunkKeyEncoding {
	return ChunkKeyEncoding{Kind: V2KeyEncoding, Separator: "."}
}

// EncodeChunkKey returns the key segment for chunkIndices, joined beneath
// an array's path with "/".
func (k ChunkKeyEncoding) EncodeChunkKey(chunkIndices []uint64) string {
	parts := make([]string, len(chunkIndices))
	for i, c := range chunkIndices {
		parts[i] = strconv.FormatUint(c, 10)
	}
	joined := strings.Join(parts, k.Separator)
	switch k.Kind {
	case V2KeyEncoding:
		if len(chunkIndices) == 0 {
			return "0"
		}
		return joined
	default:
		if len(chunkIndices) == 0 {
			return "c"
		}
		return "c" + k.Separator + joined
	}
}
