// Package storage defines the byte-addressed key-value abstraction the
// core requires of a storage backend (spec.md §6). Concrete backends
// (filesystem, object-store adapters) are external collaborators; only
// their interfaces are specified here.
package storage

import "context"

// RangeKind distinguishes the two ways a byte range can be expressed.
type RangeKind int

const (
	// FromStartKind addresses bytes [Offset, Offset+Length), or
	// [Offset, end) when Length is nil.
	FromStartKind RangeKind = iota
	// SuffixKind addresses the last Length bytes of the value.
	SuffixKind
)

// ByteRange is either FromStart(offset, optional length) or Suffix(length),
// matching spec.md §6.
type ByteRange struct {
	Kind   RangeKind
	Offset uint64  // valid when Kind == FromStartKind
	Length *uint64 // valid when Kind == FromStartKind (nil means "to end") or Kind == SuffixKind
}

// FromStart builds a FromStartKind range. A nil length reads to the end of
// the value.
func FromStart(offset uint64, length *uint64) ByteRange {
	return ByteRange{Kind: FromStartKind, Offset: offset, Length: length}
}

// Suffix builds a SuffixKind range addressing the trailing length bytes.
func Suffix(length uint64) ByteRange {
	return ByteRange{Kind: SuffixKind, Length: &length}
}

// OffsetBytes pairs a byte offset with the bytes to write there, the unit
// of a SetPartialMany call.
type OffsetBytes struct {
	Offset uint64
	Bytes  []byte
}

// Readable is the byte-range read surface a storage backend exposes.
type Readable interface {
	// GetPartialMany returns one byte slice per requested range, in order,
	// or (nil, false, nil) if key does not exist.
	GetPartialMany(ctx context.Context, key string, ranges []ByteRange) ([][]byte, bool, error)
	// SizeKey returns the size of the value at key, or (0, false, nil) if
	// key does not exist.
	SizeKey(ctx context.Context, key string) (uint64, bool, error)
	// SupportsGetPartial reports whether GetPartialMany can avoid reading
	// the full value. Backends that can only read in full still implement
	// GetPartialMany (by reading fully and slicing) but report false here
	// so callers can choose cheaper strategies.
	SupportsGetPartial() bool
}

// Writable is the write surface a storage backend exposes.
type Writable interface {
	// Set writes bytes as the entirety of key's value.
	Set(ctx context.Context, key string, bytes []byte) error
	// SetPartialMany writes each OffsetBytes at its offset within key's
	// existing (or to-be-created) value. Whether this is atomic across
	// the whole call is backend-specific; spec.md §9 leaves this an open
	// question for callers to account for (see DESIGN.md).
	SetPartialMany(ctx context.Context, key string, writes []OffsetBytes) error
	// Erase deletes key. Erasing an absent key is not an error.
	Erase(ctx context.Context, key string) error
	// ErasePrefix deletes every key with the given prefix.
	ErasePrefix(ctx context.Context, prefix string) error
	// SupportsSetPartial reports whether SetPartialMany can avoid a full
	// rewrite of the value.
	SupportsSetPartial() bool
}

// Listable is the enumeration surface a storage backend exposes.
type Listable interface {
	List(ctx context.Context) ([]string, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	// ListDir returns the immediate children of prefix: keys (leaves) and
	// sub-prefixes (directories), both are '/'-terminated for prefixes.
	ListDir(ctx context.Context, prefix string) (keys []string, prefixes []string, err error)
	Size(ctx context.Context) (uint64, error)
	SizePrefix(ctx context.Context, prefix string) (uint64, error)
}

// Store is the full storage surface the array core depends on.
type Store interface {
	Readable
	Writable
	Listable
}
