package codec

import (
	"fmt"

	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/zarrerr"
)

// FillArrayBytes builds an ArrayBytes whose every element is rep's fill
// value.
func FillArrayBytes(rep ChunkRepresentation) (ArrayBytes, error) {
	n := rep.NumElements()
	if rep.DataType.Size.IsVariable() {
		offsets := make([]uint64, n+1)
		return ArrayBytes{Kind: VlenKind, Bytes: nil, Offsets: offsets}, nil
	}
	elemSize, _ := rep.DataType.Size.FixedSize()
	buf := make([]byte, n*uint64(elemSize))
	for off := uint64(0); off < n*uint64(elemSize); off += uint64(elemSize) {
		copy(buf[off:off+uint64(elemSize)], rep.FillValue.Bytes)
	}
	return NewFlenArrayBytes(buf), nil
}

// IsAllFill reports whether ab consists entirely of rep's fill value.
func IsAllFill(ab ArrayBytes, rep ChunkRepresentation) bool {
	if ab.Kind == VlenKind {
		for i := 0; i < len(ab.Offsets)-1; i++ {
			if len(ab.Element(i)) != 0 {
				return false
			}
		}
		return true
	}
	fill := rep.FillValue.Bytes
	if len(fill) == 0 {
		return true
	}
	if len(ab.Bytes)%len(fill) != 0 {
		return false
	}
	for off := 0; off < len(ab.Bytes); off += len(fill) {
		for i, b := range fill {
			if ab.Bytes[off+i] != b {
				return false
			}
		}
	}
	return true
}

// ExtractArrayBytes implements the "full_decode().extract(I)" fallback
// (spec.md §8 Partial-decode consistency): it reads the elements of full
// (a decoded buffer shaped like rep.Shape) selected by ind, in ind's
// enumeration order.
func ExtractArrayBytes(full ArrayBytes, rep ChunkRepresentation, ind indexer.Indexer) (ArrayBytes, error) {
	if ind.Dimensionality() != len(rep.Shape) {
		return ArrayBytes{}, fmt.Errorf("%w: indexer has %d dims, representation has %d", zarrerr.ErrInvalidIndexer, ind.Dimensionality(), len(rep.Shape))
	}
	strides := indexer.CStrides(rep.Shape)

	if full.Kind == VlenKind {
		var outBytes []byte
		offsets := []uint64{0}
		var walkErr error
		ind.Indices(func(idx []uint64) {
			lin, err := linearIndex(idx, rep.Shape, strides)
			if err != nil {
				walkErr = err
				return
			}
			elem := full.Element(int(lin))
			outBytes = append(outBytes, elem...)
			offsets = append(offsets, uint64(len(outBytes)))
		})
		if walkErr != nil {
			return ArrayBytes{}, walkErr
		}
		return ArrayBytes{Kind: VlenKind, Bytes: outBytes, Offsets: offsets}, nil
	}

	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return ArrayBytes{}, fmt.Errorf("%w: fixed-size extract on variable-size data type", zarrerr.ErrUnsupportedDataType)
	}
	out := make([]byte, 0, ind.Len()*uint64(elemSize))
	var walkErr error
	ind.Indices(func(idx []uint64) {
		lin, err := linearIndex(idx, rep.Shape, strides)
		if err != nil {
			walkErr = err
			return
		}
		start := lin * uint64(elemSize)
		out = append(out, full.Bytes[start:start+uint64(elemSize)]...)
	})
	if walkErr != nil {
		return ArrayBytes{}, walkErr
	}
	return NewFlenArrayBytes(out), nil
}

// UpdateArrayBytes implements the read-modify-write contract (spec.md §4.6,
// §4.4.2 "update_array_bytes"): it returns a copy of full with the elements
// selected by ind overwritten by newData's elements, enumerated in the same
// order as ind.Indices. Elements outside ind are unchanged.
func UpdateArrayBytes(full ArrayBytes, rep ChunkRepresentation, ind indexer.Indexer, newData ArrayBytes) (ArrayBytes, error) {
	if ind.Dimensionality() != len(rep.Shape) {
		return ArrayBytes{}, fmt.Errorf("%w: indexer has %d dims, representation has %d", zarrerr.ErrInvalidIndexer, ind.Dimensionality(), len(rep.Shape))
	}
	strides := indexer.CStrides(rep.Shape)

	if full.Kind == VlenKind {
		n := rep.NumElements()
		updates := make(map[uint64][]byte)
		pos := 0
		var walkErr error
		ind.Indices(func(idx []uint64) {
			lin, err := linearIndex(idx, rep.Shape, strides)
			if err != nil {
				walkErr = err
				return
			}
			updates[lin] = newData.Element(pos)
			pos++
		})
		if walkErr != nil {
			return ArrayBytes{}, walkErr
		}
		var outBytes []byte
		offsets := make([]uint64, n+1)
		for i := uint64(0); i < n; i++ {
			var elem []byte
			if v, ok := updates[i]; ok {
				elem = v
			} else {
				elem = full.Element(int(i))
			}
			outBytes = append(outBytes, elem...)
			offsets[i+1] = uint64(len(outBytes))
		}
		return ArrayBytes{Kind: VlenKind, Bytes: outBytes, Offsets: offsets}, nil
	}

	elemSize, ok := rep.DataType.Size.FixedSize()
	if !ok {
		return ArrayBytes{}, fmt.Errorf("%w: fixed-size update on variable-size data type", zarrerr.ErrUnsupportedDataType)
	}
	out := append([]byte(nil), full.Bytes...)
	pos := 0
	var walkErr error
	ind.Indices(func(idx []uint64) {
		lin, err := linearIndex(idx, rep.Shape, strides)
		if err != nil {
			walkErr = err
			return
		}
		start := lin * uint64(elemSize)
		srcStart := uint64(pos) * uint64(elemSize)
		copy(out[start:start+uint64(elemSize)], newData.Bytes[srcStart:srcStart+uint64(elemSize)])
		pos++
	})
	if walkErr != nil {
		return ArrayBytes{}, walkErr
	}
	return NewFlenArrayBytes(out), nil
}

func linearIndex(idx []uint64, shape []uint64, strides []uint64) (uint64, error) {
	var off uint64
	for i, v := range idx {
		if v >= shape[i] {
			return 0, fmt.Errorf("%w: index %d out of bounds on axis %d (size %d)", zarrerr.ErrInvalidIndexer, v, i, shape[i])
		}
		off += v * strides[i]
	}
	return off, nil
}
