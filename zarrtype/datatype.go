// Package zarrtype models the codec-relevant facets of a Zarr data type:
// its element size (fixed or variable), endianness, and fill value
// representation. A full data-type registry (the plugin glue spec.md §1
// excludes) is not implemented here; only the traits the codec pipeline
// needs to reason about bytes are.
package zarrtype

import (
	"fmt"
	"strconv"

	"github.com/TuSKan/go-zarr/zarrerr"
)

// Size describes whether a data type occupies a fixed number of bytes per
// element, or a variable number (string/bytes types).
type Size struct {
	variable bool
	fixed    int
}

// Fixed constructs a fixed-size Size of n bytes per element.
func Fixed(n int) Size { return Size{fixed: n} }

// Variable constructs a variable-size Size.
func Variable() Size { return Size{variable: true} }

// IsVariable reports whether the size is variable-length.
func (s Size) IsVariable() bool { return s.variable }

// FixedSize returns the fixed byte size and true, or (0, false) if variable.
func (s Size) FixedSize() (int, bool) {
	if s.variable {
		return 0, false
	}
	return s.fixed, true
}

// Endian is the byte order of a fixed-width data type's elements.
type Endian int

const (
	// NativeEndian indicates byte order is irrelevant (e.g. 1-byte types).
	NativeEndian Endian = iota
	LittleEndian
	BigEndian
)

// DataType is the codec-relevant description of a Zarr element type: its
// wire name, its size, and (for fixed-size types) its endianness.
type DataType struct {
	Name   string
	Size   Size
	Endian Endian
}

// FillValueBytes returns the byte encoding of v for this data type. For
// fixed-size types the result has exactly FixedSize() bytes (spec.md §3:
// "fill value byte length = size when Fixed").
func (d DataType) FillValueBytes(v FillValue) ([]byte, error) {
	if n, ok := d.Size.FixedSize(); ok {
		if len(v.Bytes) != n {
			return nil, fmt.Errorf("%w: fill value for %s must be %d bytes, got %d", zarrerr.ErrUnsupportedDataType, d.Name, n, len(v.Bytes))
		}
	}
	return append([]byte(nil), v.Bytes...), nil
}

// FillValue is a byte-level fill value: the logical contents of any element
// with no encoded storage (spec.md Glossary).
type FillValue struct {
	Bytes []byte
}

// ZeroFillValue builds an all-zero fill value of n bytes.
func ZeroFillValue(n int) FillValue { return FillValue{Bytes: make([]byte, n)} }

// IsAllFill reports whether data, a buffer of whole elements, consists
// entirely of repeated copies of the fill value. An empty fill value (0
// bytes, e.g. an empty string) is vacuously all-fill for any data.
func IsAllFill(data []byte, fill []byte) bool {
	if len(fill) == 0 {
		return true
	}
	if len(data)%len(fill) != 0 {
		return false
	}
	for off := 0; off < len(data); off += len(fill) {
		for i, b := range fill {
			if data[off+i] != b {
				return false
			}
		}
	}
	return true
}

// ParseNumpyDType parses a numpy-style dtype string such as "<f4", "|b1",
// ">i8" into a DataType. Grounded on the teacher's ParseDType (Zarr V2
// dtype strings), extended here to accept big-endian types by recording
// Endian instead of rejecting them outright.
func ParseNumpyDType(s string) (DataType, error) {
	if len(s) < 3 {
		return DataType{}, fmt.Errorf("%w: invalid dtype %q", zarrerr.ErrUnsupportedDataType, s)
	}
	endianCh := s[0]
	kind := s[1]
	sizeStr := s[2:]

	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return DataType{}, fmt.Errorf("%w: invalid size in dtype %q", zarrerr.ErrUnsupportedDataType, s)
	}

	var endian Endian
	switch endianCh {
	case '<':
		endian = LittleEndian
	case '>':
		endian = BigEndian
	case '|':
		endian = NativeEndian
	default:
		return DataType{}, fmt.Errorf("%w: invalid byte-order marker in dtype %q", zarrerr.ErrUnsupportedDataType, s)
	}

	var name string
	switch kind {
	case 'b':
		name = "bool"
	case 'i':
		name = fmt.Sprintf("int%d", size*8)
	case 'u':
		name = fmt.Sprintf("uint%d", size*8)
	case 'f':
		name = fmt.Sprintf("float%d", size*8)
	case 'c':
		name = fmt.Sprintf("complex%d", size*8)
	case 'S', 'U':
		return DataType{Name: "string", Size: Variable(), Endian: NativeEndian}, nil
	default:
		return DataType{}, fmt.Errorf("%w: unsupported dtype kind %q in %q", zarrerr.ErrUnsupportedDataType, string(kind), s)
	}

	return DataType{Name: name, Size: Fixed(size), Endian: endian}, nil
}

// V2FillValueDefault returns the type-appropriate default the engine
// substitutes for a Zarr V2 fill_value of null: empty string for variable
// types, false (a zero byte) for bool, and zero otherwise (spec.md §9 Open
// Question, resolved in DESIGN.md).
func V2FillValueDefault(d DataType) FillValue {
	if d.Size.IsVariable() {
		return FillValue{Bytes: nil}
	}
	n, _ := d.Size.FixedSize()
	return ZeroFillValue(n)
}
