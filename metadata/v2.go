package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bytescodec"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// ArrayMetadataV2 is the .zarray document: a numpy-style dtype string, a
// single fixed chunk shape, one optional "compressor" and "filters" list,
// and a fill_value that may be JSON null (spec.md §9's V2 fill_value Open
// Question: resolved via zarrtype.V2FillValueDefault).
type ArrayMetadataV2 struct {
	ZarrFormat int             `json:"zarr_format"`
	Shape      []uint64        `json:"shape"`
	Chunks     []uint64        `json:"chunks"`
	DType      string          `json:"dtype"`
	Compressor *CodecMetadata  `json:"compressor"`
	Filters    []CodecMetadata `json:"filters"`
	FillValue  json.RawMessage `json:"fill_value"`
	Order      string          `json:"order"`
}

// v2CompressorNames maps a V2 compressor name to this core's V3 codec name,
// so BuildBytesToBytesCodec can be reused as-is. The compressor object is
// read as a CodecMetadata ({"name", "configuration"}); a numcodecs-style
// "id" key with inline settings is not recognised.
var v2CompressorNames = map[string]string{
	"gzip":  "gzip",
	"zlib":  "zlib",
	"zstd":  "zstd",
	"blosc": "blosc",
}

// BuildV2CodecChain assembles the CodecChain a V2 array uses: a bytes
// codec matching the dtype's endianness (V2 has no explicit "bytes" codec
// entry; byte order comes from the dtype string itself), any "filters" as
// array-to-array codecs, and "compressor" as the sole bytes-to-bytes codec.
func BuildV2CodecChain(m ArrayMetadataV2, dtype zarrtype.DataType) (*codec.CodecChain, error) {
	var a2a []codec.ArrayToArrayCodec
	for _, f := range m.Filters {
		c, err := BuildArrayToArrayCodec(f)
		if err != nil {
			return nil, fmt.Errorf("v2 filter: %w", err)
		}
		a2a = append(a2a, c)
	}

	var b2b []codec.BytesToBytesCodec
	if m.Compressor != nil {
		name, ok := v2CompressorNames[m.Compressor.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported v2 compressor id %q", zarrerr.ErrAdditionalField, m.Compressor.Name)
		}
		c, err := BuildBytesToBytesCodec(CodecMetadata{Name: name, Configuration: m.Compressor.Configuration})
		if err != nil {
			return nil, fmt.Errorf("v2 compressor: %w", err)
		}
		b2b = append(b2b, c)
	}

	return codec.NewCodecChain(a2a, []codec.ArrayToBytesCodec{bytescodec.New(dtype.Endian)}, b2b)
}

// ParseV2FillValue decodes a .zarray fill_value: null substitutes the
// type-appropriate default (zarrtype.V2FillValueDefault), otherwise it is
// parsed the same way a V3 scalar fill_value is.
func ParseV2FillValue(raw json.RawMessage, dtype zarrtype.DataType) (zarrtype.FillValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return zarrtype.V2FillValueDefault(dtype), nil
	}
	return ParseFillValue(raw, dtype)
}
