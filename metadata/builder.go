package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/TuSKan/go-zarr/array"
	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// BuildArrayV3 parses a zarr.json document and assembles the Array it
// describes against store, rooted at path.
func BuildArrayV3(store storage.Store, path string, doc []byte) (*array.Array, error) {
	var m ArrayMetadataV3
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("parse zarr.json: %w", err)
	}

	dtype, err := ParseV3DataType(m.DataType)
	if err != nil {
		return nil, err
	}
	grid, err := BuildChunkGrid(m.Shape, m.ChunkGrid)
	if err != nil {
		return nil, err
	}
	enc, err := BuildChunkKeyEncoding(m.ChunkKeyEncoding)
	if err != nil {
		return nil, err
	}
	chain, err := BuildCodecChain(m.Codecs)
	if err != nil {
		return nil, err
	}
	fill, err := ParseFillValue(m.FillValue, dtype)
	if err != nil {
		return nil, err
	}

	return array.New(store, path, m.Shape, grid, chain, dtype, fill, enc), nil
}

// BuildArrayV2 parses a .zarray document and assembles the Array it
// describes against store, rooted at path.
func BuildArrayV2(store storage.Store, path string, doc []byte) (*array.Array, error) {
	var m ArrayMetadataV2
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("parse .zarray: %w", err)
	}

	dtype, err := zarrtype.ParseNumpyDType(m.DType)
	if err != nil {
		return nil, err
	}
	grid, err := chunkgrid.NewRegular(m.Shape, m.Chunks)
	if err != nil {
		return nil, err
	}
	chain, err := BuildV2CodecChain(m, dtype)
	if err != nil {
		return nil, err
	}
	fill, err := ParseV2FillValue(m.FillValue, dtype)
	if err != nil {
		return nil, err
	}

	return array.New(store, path, m.Shape, grid, chain, dtype, fill, array.DefaultV2Encoding()), nil
}
