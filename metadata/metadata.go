// Package metadata parses Zarr V2 (.zarray) and V3 (zarr.json) array
// metadata documents into the chunk grids, data types, and codec chains
// the core operates on, and builds the matching codec chain from the
// wire-format codec metadata list (spec.md §6, "Zarr V3 chunk layout at
// rest" and "Codec metadata"). Group metadata, node hierarchy, and
// attribute semantics are out of scope (spec.md Non-goals); only the
// array-level document is modeled.
package metadata

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/TuSKan/go-zarr/array"
	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// CodecMetadata is one entry of a V3 "codecs" array: a name and an
// arbitrary per-codec JSON configuration object.
type CodecMetadata struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// ChunkGridMetadata is the V3 "chunk_grid" object: a name selecting the
// grid kind, and a kind-specific configuration.
type ChunkGridMetadata struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration"`
}

// ChunkKeyEncodingMetadata is the V3 "chunk_key_encoding" object.
type ChunkKeyEncodingMetadata struct {
	Name          string          `json:"name"` // "default" or "v2"
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

type separatorConfig struct {
	Separator string `json:"separator,omitempty"`
}

// ArrayMetadataV3 is the zarr.json document for an array node (spec.md
// §6's chunk-key-encoding and codec-metadata rules). Attributes holds only
// the document's "attributes" object; fields this implementation does not
// model, such as dimension_names and storage_transformers, are dropped on
// parse.
type ArrayMetadataV3 struct {
	ZarrFormat       int                      `json:"zarr_format"`
	NodeType         string                   `json:"node_type"`
	Shape            []uint64                 `json:"shape"`
	DataType         string                   `json:"data_type"`
	ChunkGrid        ChunkGridMetadata        `json:"chunk_grid"`
	ChunkKeyEncoding ChunkKeyEncodingMetadata `json:"chunk_key_encoding"`
	FillValue        json.RawMessage          `json:"fill_value"`
	Codecs           []CodecMetadata          `json:"codecs"`
	Attributes       map[string]any           `json:"attributes,omitempty"`
}

type regularGridConfig struct {
	ChunkShape []uint64 `json:"chunk_shape"`
}

// rleEntryJSON accepts either a bare value (an implicit run of length 1) or
// a [value, count] pair, matching the two forms spec.md's example RLE list
// mixes: `[[5,3],[15,2],20,35]`.
type rleEntryJSON chunkgrid.RLEEntry

func (e *rleEntryJSON) UnmarshalJSON(data []byte) error {
	var bare uint64
	if err := json.Unmarshal(data, &bare); err == nil {
		e.Value, e.Count = bare, 1
		return nil
	}
	var pair [2]uint64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: invalid RLE entry %s", zarrerr.ErrAdditionalField, string(data))
	}
	e.Value, e.Count = pair[0], pair[1]
	return nil
}

func (e rleEntryJSON) MarshalJSON() ([]byte, error) {
	if e.Count == 1 {
		return json.Marshal(e.Value)
	}
	return json.Marshal([2]uint64{e.Value, e.Count})
}

type rectilinearGridConfig struct {
	ChunkShapes [][]rleEntryJSON `json:"chunk_shapes"`
}

// BuildChunkGrid constructs the ChunkGrid the metadata describes. "regular"
// is Zarr V3's standard grid; "rectilinear" is this core's own extension
// for per-axis run-length-encoded chunk sizes (spec.md §2, not part of the
// upstream Zarr V3 core spec — see DESIGN.md).
func BuildChunkGrid(shape []uint64, m ChunkGridMetadata) (chunkgrid.ChunkGrid, error) {
	switch m.Name {
	case "regular":
		var cfg regularGridConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: chunk_grid regular configuration: %v", zarrerr.ErrStorage, err)
		}
		return chunkgrid.NewRegular(shape, cfg.ChunkShape)
	case "rectilinear":
		var cfg rectilinearGridConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: chunk_grid rectilinear configuration: %v", zarrerr.ErrStorage, err)
		}
		rle := make([][]chunkgrid.RLEEntry, len(cfg.ChunkShapes))
		for i, axis := range cfg.ChunkShapes {
			entries := make([]chunkgrid.RLEEntry, len(axis))
			for j, e := range axis {
				entries[j] = chunkgrid.RLEEntry(e)
			}
			rle[i] = entries
		}
		return chunkgrid.NewRectilinear(shape, rle)
	default:
		return nil, fmt.Errorf("%w: unsupported chunk_grid kind %q", zarrerr.ErrAdditionalField, m.Name)
	}
}

// ToRLEConfig converts a Rectilinear grid back to its wire RLE form, the
// counterpart of BuildChunkGrid's "rectilinear" case.
func ToRLEConfig(g *chunkgrid.Rectilinear) rectilinearGridConfig {
	rle := g.ToRLE()
	out := make([][]rleEntryJSON, len(rle))
	for i, axis := range rle {
		entries := make([]rleEntryJSON, len(axis))
		for j, e := range axis {
			entries[j] = rleEntryJSON(e)
		}
		out[i] = entries
	}
	return rectilinearGridConfig{ChunkShapes: out}
}

// BuildChunkKeyEncoding constructs the array.ChunkKeyEncoding the metadata
// describes.
func BuildChunkKeyEncoding(m ChunkKeyEncodingMetadata) (array.ChunkKeyEncoding, error) {
	sep := "/"
	if len(m.Configuration) > 0 {
		var cfg separatorConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return array.ChunkKeyEncoding{}, fmt.Errorf("%w: chunk_key_encoding configuration: %v", zarrerr.ErrStorage, err)
		}
		if cfg.Separator != "" {
			sep = cfg.Separator
		}
	}
	switch m.Name {
	case "default":
		return array.ChunkKeyEncoding{Kind: array.DefaultKeyEncoding, Separator: sep}, nil
	case "v2":
		if sep == "/" {
			sep = "."
		}
		return array.ChunkKeyEncoding{Kind: array.V2KeyEncoding, Separator: sep}, nil
	default:
		return array.ChunkKeyEncoding{}, fmt.Errorf("%w: unsupported chunk_key_encoding kind %q", zarrerr.ErrAdditionalField, m.Name)
	}
}

// v3TypeTable maps the built-in V3 data_type names this core supports onto
// their codec-relevant DataType. Extension data types (spec.md §1's
// plugin/registry concerns) are out of scope.
var v3TypeTable = map[string]zarrtype.DataType{
	"bool":    {Name: "bool", Size: zarrtype.Fixed(1), Endian: zarrtype.NativeEndian},
	"int8":    {Name: "int8", Size: zarrtype.Fixed(1), Endian: zarrtype.NativeEndian},
	"uint8":   {Name: "uint8", Size: zarrtype.Fixed(1), Endian: zarrtype.NativeEndian},
	"int16":   {Name: "int16", Size: zarrtype.Fixed(2), Endian: zarrtype.LittleEndian},
	"uint16":  {Name: "uint16", Size: zarrtype.Fixed(2), Endian: zarrtype.LittleEndian},
	"int32":   {Name: "int32", Size: zarrtype.Fixed(4), Endian: zarrtype.LittleEndian},
	"uint32":  {Name: "uint32", Size: zarrtype.Fixed(4), Endian: zarrtype.LittleEndian},
	"int64":   {Name: "int64", Size: zarrtype.Fixed(8), Endian: zarrtype.LittleEndian},
	"uint64":  {Name: "uint64", Size: zarrtype.Fixed(8), Endian: zarrtype.LittleEndian},
	"float32": {Name: "float32", Size: zarrtype.Fixed(4), Endian: zarrtype.LittleEndian},
	"float64": {Name: "float64", Size: zarrtype.Fixed(8), Endian: zarrtype.LittleEndian},
	"string":  {Name: "string", Size: zarrtype.Variable(), Endian: zarrtype.NativeEndian},
	"bytes":   {Name: "bytes", Size: zarrtype.Variable(), Endian: zarrtype.NativeEndian},
}

// ParseV3DataType resolves a zarr.json data_type string to a DataType.
func ParseV3DataType(name string) (zarrtype.DataType, error) {
	dt, ok := v3TypeTable[name]
	if !ok {
		return zarrtype.DataType{}, fmt.Errorf("%w: unsupported V3 data_type %q", zarrerr.ErrUnsupportedDataType, name)
	}
	return dt, nil
}

// ParseFillValue decodes a V3 fill_value JSON scalar into byte form for
// dtype. Numeric scalars are encoded little-endian; "true"/"false" map to a
// single byte; a JSON string is used verbatim as a variable-length fill
// (spec.md §3's FillValue is opaque bytes; this is the V3 JSON-to-bytes
// mapping).
func ParseFillValue(raw json.RawMessage, dtype zarrtype.DataType) (zarrtype.FillValue, error) {
	if dtype.Size.IsVariable() {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return zarrtype.FillValue{}, fmt.Errorf("%w: fill_value for variable-length type must be a string", zarrerr.ErrUnsupportedDataType)
		}
		return zarrtype.FillValue{Bytes: []byte(s)}, nil
	}
	n, _ := dtype.Size.FixedSize()
	if dtype.Name == "bool" {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return zarrtype.FillValue{}, fmt.Errorf("%w: invalid bool fill_value", zarrerr.ErrUnsupportedDataType)
		}
		if b {
			return zarrtype.FillValue{Bytes: []byte{1}}, nil
		}
		return zarrtype.FillValue{Bytes: []byte{0}}, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return zarrtype.FillValue{}, fmt.Errorf("%w: invalid numeric fill_value", zarrerr.ErrUnsupportedDataType)
	}
	buf := make([]byte, n)
	writeLittleEndianNumber(buf, f, dtype.Name)
	return zarrtype.FillValue{Bytes: buf}, nil
}

// writeLittleEndianNumber stores f, truncated to the wire type named by
// typeName, into buf as little-endian bytes.
func writeLittleEndianNumber(buf []byte, f float64, typeName string) {
	switch typeName {
	case "float32":
		bits := math.Float32bits(float32(f))
		binary.LittleEndian.PutUint32(buf, bits)
	case "float64":
		bits := math.Float64bits(f)
		binary.LittleEndian.PutUint64(buf, bits)
	default:
		u := uint64(int64(f))
		for i := range buf {
			buf[i] = byte(u >> (8 * i))
		}
	}
}
