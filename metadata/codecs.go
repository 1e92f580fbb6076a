package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/codec/bitround"
	"github.com/TuSKan/go-zarr/codec/blosc"
	"github.com/TuSKan/go-zarr/codec/bytescodec"
	"github.com/TuSKan/go-zarr/codec/checksum"
	"github.com/TuSKan/go-zarr/codec/fixedscaleoffset"
	"github.com/TuSKan/go-zarr/codec/gzipcodec"
	"github.com/TuSKan/go-zarr/codec/packbits"
	"github.com/TuSKan/go-zarr/codec/reshape"
	"github.com/TuSKan/go-zarr/codec/sharding"
	"github.com/TuSKan/go-zarr/codec/squeeze"
	"github.com/TuSKan/go-zarr/codec/transpose"
	"github.com/TuSKan/go-zarr/codec/vlen"
	"github.com/TuSKan/go-zarr/codec/zstdcodec"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

type endianConfig struct {
	Endian string `json:"endian"`
}

type levelConfig struct {
	Level int `json:"level"`
}

type zstdConfig struct {
	Level    int  `json:"level"`
	Checksum bool `json:"checksum"`
}

type bloscConfig struct {
	Clevel   int    `json:"clevel"`
	Shuffle  string `json:"shuffle"`
	TypeSize int    `json:"typesize"`
}

type transposeConfig struct {
	Order []int `json:"order"`
}

type squeezeConfig struct {
	Axes []int `json:"axes"`
}

type reshapeConfig struct {
	Shape []uint64 `json:"shape"`
}

type bitroundConfig struct {
	KeepBits uint `json:"keepbits"`
}

type fixedScaleOffsetConfig struct {
	Scale   float64 `json:"scale"`
	Offset  float64 `json:"offset"`
	IntSize int     `json:"astype_size"`
}

type shardingConfig struct {
	ChunkShape    []uint64        `json:"chunk_shape"`
	Codecs        []CodecMetadata `json:"codecs"`
	IndexCodecs   []CodecMetadata `json:"index_codecs"`
	IndexLocation string          `json:"index_location"`
}

// BuildArrayToArrayCodec dispatches a codecs-list entry to the concrete
// ArrayToArrayCodec it names, for the kinds this core implements (transpose,
// squeeze, reshape, bitround, fixedscaleoffset — spec.md §6's codec
// metadata table).
func BuildArrayToArrayCodec(m CodecMetadata) (codec.ArrayToArrayCodec, error) {
	switch m.Name {
	case "transpose":
		var cfg transposeConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: transpose configuration: %v", zarrerr.ErrCodec, err)
		}
		return transpose.New(cfg.Order)
	case "squeeze":
		var cfg squeezeConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: squeeze configuration: %v", zarrerr.ErrCodec, err)
		}
		return squeeze.New(cfg.Axes), nil
	case "reshape":
		var cfg reshapeConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: reshape configuration: %v", zarrerr.ErrCodec, err)
		}
		return reshape.New(cfg.Shape), nil
	case "bitround":
		var cfg bitroundConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: bitround configuration: %v", zarrerr.ErrCodec, err)
		}
		return bitround.New(cfg.KeepBits), nil
	case "fixedscaleoffset":
		var cfg fixedScaleOffsetConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: fixedscaleoffset configuration: %v", zarrerr.ErrCodec, err)
		}
		return fixedscaleoffset.New(cfg.Scale, cfg.Offset, cfg.IntSize), nil
	default:
		return nil, fmt.Errorf("%w: unsupported array-to-array codec %q", zarrerr.ErrAdditionalField, m.Name)
	}
}

// BuildArrayToBytesCodec dispatches to the array-to-bytes role codec: the
// plain "bytes" codec, "vlen-bytes"/"vlen-utf8"/"vlen", "packbits", or
// "sharding_indexed" (which recursively builds its own inner and index
// codec chains).
//
// "zfp"/"zfpy" and "pcodec" are not dispatched here even though spec.md §6's
// codec table names them: zfp requires linking the external zfp C library
// and is feature-gated off by default even in its own upstream crate;
// pcodec is a Rust-crate binding. Neither has a Go implementation, FFI
// binding, or cgo-free equivalent anywhere in the retrieval pack this
// module was built from, and this codebase does not fabricate stub
// dependencies, so both fall through to the unsupported-codec error below.
func BuildArrayToBytesCodec(m CodecMetadata) (codec.ArrayToBytesCodec, error) {
	switch m.Name {
	case "bytes":
		var cfg endianConfig
		endian := zarrtype.LittleEndian
		if len(m.Configuration) > 0 {
			if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
				return nil, fmt.Errorf("%w: bytes configuration: %v", zarrerr.ErrCodec, err)
			}
			if cfg.Endian == "big" {
				endian = zarrtype.BigEndian
			}
		}
		return bytescodec.New(endian), nil
	case "vlen-bytes", "vlen-utf8", "vlen":
		return vlen.New(), nil
	case "packbits":
		return packbits.New(), nil
	case "sharding_indexed":
		var cfg shardingConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: sharding_indexed configuration: %v", zarrerr.ErrCodec, err)
		}
		inner, err := BuildCodecChain(cfg.Codecs)
		if err != nil {
			return nil, fmt.Errorf("sharding_indexed inner codecs: %w", err)
		}
		indexChain, err := BuildCodecChain(cfg.IndexCodecs)
		if err != nil {
			return nil, fmt.Errorf("sharding_indexed index codecs: %w", err)
		}
		loc := sharding.End
		if cfg.IndexLocation == "start" {
			loc = sharding.Start
		}
		return sharding.New(cfg.ChunkShape, inner, indexChain, loc), nil
	default:
		return nil, fmt.Errorf("%w: unsupported array-to-bytes codec %q", zarrerr.ErrAdditionalField, m.Name)
	}
}

// BuildBytesToBytesCodec dispatches to a bytes-to-bytes filter or checksum
// codec: gzip/zlib, zstd, the checksum family (crc32c/adler32/fletcher32),
// or blosc.
func BuildBytesToBytesCodec(m CodecMetadata) (codec.BytesToBytesCodec, error) {
	switch m.Name {
	case "gzip", "zlib":
		var cfg levelConfig
		if len(m.Configuration) > 0 {
			if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
				return nil, fmt.Errorf("%w: gzip configuration: %v", zarrerr.ErrCodec, err)
			}
		}
		return gzipcodec.New(cfg.Level), nil
	case "zstd":
		var cfg zstdConfig
		if len(m.Configuration) > 0 {
			if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
				return nil, fmt.Errorf("%w: zstd configuration: %v", zarrerr.ErrCodec, err)
			}
		}
		return zstdcodec.New(cfg.Level, cfg.Checksum), nil
	case "crc32c", "adler32", "fletcher32":
		kind := checksum.CRC32C
		switch m.Name {
		case "adler32":
			kind = checksum.Adler32
		case "fletcher32":
			kind = checksum.Fletcher32
		}
		return checksum.New(kind), nil
	case "blosc":
		var cfg bloscConfig
		if err := json.Unmarshal(m.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("%w: blosc configuration: %v", zarrerr.ErrCodec, err)
		}
		shuffle := blosc.NoShuffle
		switch cfg.Shuffle {
		case "shuffle":
			shuffle = blosc.ByteShuffle
		case "bitshuffle":
			shuffle = blosc.BitShuffle
		}
		return blosc.New(cfg.Clevel, shuffle, cfg.TypeSize), nil
	default:
		return nil, fmt.Errorf("%w: unsupported bytes-to-bytes codec %q", zarrerr.ErrAdditionalField, m.Name)
	}
}

// BuildCodecChain builds a full CodecChain from a V3 "codecs" metadata list,
// routing each entry to its array-to-array, array-to-bytes, or
// bytes-to-bytes role by name.
func BuildCodecChain(entries []CodecMetadata) (*codec.CodecChain, error) {
	var a2a []codec.ArrayToArrayCodec
	var a2b []codec.ArrayToBytesCodec
	var b2b []codec.BytesToBytesCodec

	for _, m := range entries {
		switch m.Name {
		case "transpose", "squeeze", "reshape", "bitround", "fixedscaleoffset":
			c, err := BuildArrayToArrayCodec(m)
			if err != nil {
				return nil, err
			}
			a2a = append(a2a, c)
		case "bytes", "vlen-bytes", "vlen-utf8", "vlen", "packbits", "sharding_indexed":
			c, err := BuildArrayToBytesCodec(m)
			if err != nil {
				return nil, err
			}
			a2b = append(a2b, c)
		case "gzip", "zlib", "zstd", "crc32c", "adler32", "fletcher32", "blosc":
			c, err := BuildBytesToBytesCodec(m)
			if err != nil {
				return nil, err
			}
			b2b = append(b2b, c)
		default:
			return nil, fmt.Errorf("%w: unknown codec %q", zarrerr.ErrAdditionalField, m.Name)
		}
	}
	return codec.NewCodecChain(a2a, a2b, b2b)
}
