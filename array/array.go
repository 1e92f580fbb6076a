// Package array implements the Array core: the façade that combines a
// shape, a chunk grid, a codec chain, a data type and fill value, and a
// storage backend into chunk- and array-subset-granularity get/set
// operations (spec.md §5).
package array

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/TuSKan/go-zarr/cache"
	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// Array is one chunked array: its geometry, codec pipeline, and the
// storage backend holding its chunks.
type Array struct {
	Store       storage.Store
	Path        string
	Shape       []uint64
	Grid        chunkgrid.ChunkGrid
	Codecs      *codec.CodecChain
	DataType    zarrtype.DataType
	FillValue   zarrtype.FillValue
	KeyEncoding ChunkKeyEncoding

	// Cache holds decoded chunk payloads keyed by storage key. Nil disables
	// caching; every Array still functions correctly without one.
	Cache *cache.Cache

	// ConcurrentTarget bounds the parallelism RetrieveArraySubset and
	// StoreArraySubset request from the chunk/codec concurrency split
	// (spec.md §5). Zero selects serial execution.
	ConcurrentTarget int
}

// New builds an Array over an already-provisioned store and chunk grid.
func New(store storage.Store, path string, shape []uint64, grid chunkgrid.ChunkGrid, codecs *codec.CodecChain, dtype zarrtype.DataType, fill zarrtype.FillValue, enc ChunkKeyEncoding) *Array {
	return &Array{
		Store:       store,
		Path:        path,
		Shape:       shape,
		Grid:        grid,
		Codecs:      codecs,
		DataType:    dtype,
		FillValue:   fill,
		KeyEncoding: enc,
	}
}

func (a *Array) chunkKey(chunkIndices []uint64) string {
	seg := a.KeyEncoding.EncodeChunkKey(chunkIndices)
	if a.Path == "" {
		return seg
	}
	return a.Path + "/" + seg
}

func (a *Array) chunkRepresentation(chunkIndices []uint64) (codec.ChunkRepresentation, error) {
	shape, err := a.Grid.ChunkShape(chunkIndices)
	if err != nil {
		return codec.ChunkRepresentation{}, err
	}
	return codec.ChunkRepresentation{Shape: shape, DataType: a.DataType, FillValue: a.FillValue}, nil
}

func (a *Array) codecOptions() codec.Options {
	return codec.Options{Concurrency: codec.CodecOptions{ConcurrentTarget: a.ConcurrentTarget}}
}

// RetrieveChunk reads and decodes the whole of chunk chunkIndices, returning
// a fill-valued buffer if the chunk has never been written (spec.md §5,
// "retrieve_chunk").
func (a *Array) RetrieveChunk(ctx context.Context, chunkIndices []uint64) (codec.ArrayBytes, error) {
	rep, err := a.chunkRepresentation(chunkIndices)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	key := a.chunkKey(chunkIndices)

	fetch := func(ctx context.Context) (cache.Entry, error) {
		ab, err := a.decodeKey(ctx, key, rep)
		if err != nil {
			return cache.Entry{}, err
		}
		return cache.Entry{Decoded: ab}, nil
	}

	if a.Cache == nil {
		e, err := fetch(ctx)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		return e.Decoded.(codec.ArrayBytes), nil
	}
	e, err := a.Cache.GetOrInsert(ctx, key, fetch)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return e.Decoded.(codec.ArrayBytes), nil
}

func (a *Array) decodeKey(ctx context.Context, key string, rep codec.ChunkRepresentation) (codec.ArrayBytes, error) {
	raws, found, err := a.Store.GetPartialMany(ctx, key, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return codec.ArrayBytes{}, fmt.Errorf("%w: reading chunk %q: %v", zarrerr.ErrStorage, key, err)
	}
	if !found {
		return codec.FillArrayBytes(rep)
	}
	return a.Codecs.Decode(ctx, raws[0], rep, a.codecOptions())
}

// StoreChunk encodes and writes the whole of chunk chunkIndices. Writing an
// all-fill-value chunk erases its key instead of storing redundant bytes
// (spec.md §5, "fill value elision").
func (a *Array) StoreChunk(ctx context.Context, chunkIndices []uint64, ab codec.ArrayBytes) error {
	rep, err := a.chunkRepresentation(chunkIndices)
	if err != nil {
		return err
	}
	key := a.chunkKey(chunkIndices)
	if a.Cache != nil {
		defer a.Cache.Invalidate(key)
	}
	if codec.IsAllFill(ab, rep) {
		return a.Store.Erase(ctx, key)
	}
	raw, err := a.Codecs.Encode(ctx, ab, rep, a.codecOptions())
	if err != nil {
		return err
	}
	if err := a.Store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: writing chunk %q: %v", zarrerr.ErrStorage, key, err)
	}
	return nil
}

// EraseChunk deletes chunk chunkIndices, equivalent to writing an all-fill
// chunk.
func (a *Array) EraseChunk(ctx context.Context, chunkIndices []uint64) error {
	key := a.chunkKey(chunkIndices)
	if a.Cache != nil {
		a.Cache.Invalidate(key)
	}
	return a.Store.Erase(ctx, key)
}

// RetrieveChunkSubset reads a sub-region of one chunk via the codec chain's
// partial decoder, avoiding a full chunk decode when the chain supports it
// (spec.md §5, "retrieve_chunk_subset").
func (a *Array) RetrieveChunkSubset(ctx context.Context, chunkIndices []uint64, ind indexer.Indexer) (codec.ArrayBytes, error) {
	rep, err := a.chunkRepresentation(chunkIndices)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	key := a.chunkKey(chunkIndices)
	size, found, err := a.Store.SizeKey(ctx, key)
	if err != nil {
		return codec.ArrayBytes{}, fmt.Errorf("%w: sizing chunk %q: %v", zarrerr.ErrStorage, key, err)
	}
	if !found || size == 0 {
		full, err := codec.FillArrayBytes(rep)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		return codec.ExtractArrayBytes(full, rep, ind)
	}
	pd, err := a.Codecs.PartialDecoder(&storePartial{store: a.Store, key: key}, rep, a.codecOptions())
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return pd.PartialDecode(ctx, ind)
}

// StoreChunkSubset overwrites a sub-region of one chunk via the codec
// chain's partial encoder (spec.md §5, "store_chunk_subset"). A chunk that
// does not yet exist is treated as all-fill by every partial encoder's
// underlying decode step, so no pre-materialisation is needed here; the
// store backend creates the key on first write (storage.Writable's
// SetPartialMany contract).
func (a *Array) StoreChunkSubset(ctx context.Context, chunkIndices []uint64, ind indexer.Indexer, newData codec.ArrayBytes) error {
	rep, err := a.chunkRepresentation(chunkIndices)
	if err != nil {
		return err
	}
	key := a.chunkKey(chunkIndices)
	if a.Cache != nil {
		defer a.Cache.Invalidate(key)
	}
	pe, err := a.Codecs.PartialEncoder(&storePartial{store: a.Store, key: key}, rep, a.codecOptions())
	if err != nil {
		return err
	}
	return pe.PartialEncode(ctx, ind, newData)
}

type chunkFetch struct {
	chunkIndices []uint64
	relInImage   indexer.ArraySubset
	ab           codec.ArrayBytes
}

// RetrieveArraySubset reads the elements selected by ind, in ind's
// enumeration order, fetching only the intersecting chunks. Rectangular
// selections are serviced via a chunk-parallel fast path; arbitrary index
// lists fall back to a per-element gather (spec.md §5, "retrieve_array_subset",
// and §1's indexer polymorphism: "fast paths call as_array_subset() and
// branch").
func (a *Array) RetrieveArraySubset(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	if ind.Dimensionality() != len(a.Shape) {
		return codec.ArrayBytes{}, fmt.Errorf("%w: indexer has %d dims, array has %d", zarrerr.ErrInvalidIndexer, ind.Dimensionality(), len(a.Shape))
	}
	if subset, ok := ind.AsArraySubset(); ok {
		return a.retrieveRectangular(ctx, subset)
	}
	return a.retrieveGeneric(ctx, ind)
}

func (a *Array) retrieveRectangular(ctx context.Context, subset indexer.ArraySubset) (codec.ArrayBytes, error) {
	outRep := codec.ChunkRepresentation{Shape: subset.Shape, DataType: a.DataType, FillValue: a.FillValue}
	out, err := codec.FillArrayBytes(outRep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	if subset.IsEmpty() {
		return out, nil
	}

	chunkRange, err := chunkgrid.ChunksInArraySubset(a.Grid, subset)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	var chunks [][]uint64
	chunkRange.Indices(func(gi []uint64) {
		chunks = append(chunks, append([]uint64(nil), gi...))
	})

	rep := codec.ChunkRepresentation{DataType: a.DataType, FillValue: a.FillValue}
	outer, inner := codec.ConcurrencyChunksAndCodec(a.ConcurrentTarget, len(chunks), a.Codecs.RecommendedConcurrency(rep))

	results := make([]chunkFetch, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(outer)
	worker := *a
	worker.ConcurrentTarget = inner
	for i, gi := range chunks {
		i, gi := i, gi
		g.Go(func() error {
			chunkSubset, err := chunkgrid.ChunkSubset(a.Grid, gi)
			if err != nil {
				return err
			}
			overlap, err := subset.Overlap(chunkSubset)
			if err != nil {
				return err
			}
			if overlap.IsEmpty() {
				return nil
			}
			relInChunk, err := overlap.RelativeTo(chunkSubset.Start)
			if err != nil {
				return err
			}
			relInImage, err := overlap.RelativeTo(subset.Start)
			if err != nil {
				return err
			}
			ab, err := worker.RetrieveChunkSubset(gctx, gi, indexer.AsIndexer(relInChunk))
			if err != nil {
				return err
			}
			results[i] = chunkFetch{chunkIndices: gi, relInImage: relInImage, ab: ab}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return codec.ArrayBytes{}, err
	}

	for _, r := range results {
		if len(r.relInImage.Shape) == 0 {
			// Chunk's overlap with subset was empty; no result was recorded.
			continue
		}
		out, err = codec.UpdateArrayBytes(out, outRep, indexer.AsIndexer(r.relInImage), r.ab)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
	}
	return out, nil
}

func (a *Array) retrieveGeneric(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	var outBytes []byte
	var offsets []uint64
	vlen := a.DataType.Size.IsVariable()
	if vlen {
		offsets = append(offsets, 0)
	}
	elemSize, _ := a.DataType.Size.FixedSize()
	var walkErr error
	ind.Indices(func(idx []uint64) {
		if walkErr != nil {
			return
		}
		chunkIdx, err := a.Grid.ChunkIndices(idx)
		if err != nil {
			walkErr = err
			return
		}
		rel, err := a.Grid.ChunkElementIndices(idx)
		if err != nil {
			walkErr = err
			return
		}
		point, err := indexer.NewArraySubset(rel, onesLike(rel))
		if err != nil {
			walkErr = err
			return
		}
		ab, err := a.RetrieveChunkSubset(ctx, chunkIdx, indexer.AsIndexer(point))
		if err != nil {
			walkErr = err
			return
		}
		if vlen {
			elem := ab.Element(0)
			outBytes = append(outBytes, elem...)
			offsets = append(offsets, uint64(len(outBytes)))
			return
		}
		outBytes = append(outBytes, ab.Bytes[:elemSize]...)
	})
	if walkErr != nil {
		return codec.ArrayBytes{}, walkErr
	}
	if vlen {
		return codec.ArrayBytes{Kind: codec.VlenKind, Bytes: outBytes, Offsets: offsets}, nil
	}
	return codec.NewFlenArrayBytes(outBytes), nil
}

func onesLike(v []uint64) []uint64 {
	out := make([]uint64, len(v))
	for i := range out {
		out[i] = 1
	}
	return out
}

// StoreArraySubset writes newData into the elements selected by ind, in
// ind's enumeration order (spec.md §5, "store_array_subset"). As with
// RetrieveArraySubset, rectangular selections take a chunk-parallel fast
// path; arbitrary index lists fall back to a per-element scatter.
func (a *Array) StoreArraySubset(ctx context.Context, ind indexer.Indexer, newData codec.ArrayBytes) error {
	if ind.Dimensionality() != len(a.Shape) {
		return fmt.Errorf("%w: indexer has %d dims, array has %d", zarrerr.ErrInvalidIndexer, ind.Dimensionality(), len(a.Shape))
	}
	if subset, ok := ind.AsArraySubset(); ok {
		return a.storeRectangular(ctx, subset, newData)
	}
	return a.storeGeneric(ctx, ind, newData)
}

func (a *Array) storeRectangular(ctx context.Context, subset indexer.ArraySubset, newData codec.ArrayBytes) error {
	if subset.IsEmpty() {
		return nil
	}
	srcRep := codec.ChunkRepresentation{Shape: subset.Shape, DataType: a.DataType, FillValue: a.FillValue}

	chunkRange, err := chunkgrid.ChunksInArraySubset(a.Grid, subset)
	if err != nil {
		return err
	}
	var chunks [][]uint64
	chunkRange.Indices(func(gi []uint64) {
		chunks = append(chunks, append([]uint64(nil), gi...))
	})

	rep := codec.ChunkRepresentation{DataType: a.DataType, FillValue: a.FillValue}
	outer, inner := codec.ConcurrencyChunksAndCodec(a.ConcurrentTarget, len(chunks), a.Codecs.RecommendedConcurrency(rep))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(outer)
	worker := *a
	worker.ConcurrentTarget = inner
	for _, gi := range chunks {
		gi := gi
		g.Go(func() error {
			chunkSubset, err := chunkgrid.ChunkSubset(a.Grid, gi)
			if err != nil {
				return err
			}
			overlap, err := subset.Overlap(chunkSubset)
			if err != nil {
				return err
			}
			if overlap.IsEmpty() {
				return nil
			}
			relInChunk, err := overlap.RelativeTo(chunkSubset.Start)
			if err != nil {
				return err
			}
			relInSrc, err := overlap.RelativeTo(subset.Start)
			if err != nil {
				return err
			}
			piece, err := codec.ExtractArrayBytes(newData, srcRep, indexer.AsIndexer(relInSrc))
			if err != nil {
				return err
			}
			if sameShape(chunkSubset.Shape, overlap.Shape) {
				return worker.StoreChunk(gctx, gi, piece)
			}
			return worker.StoreChunkSubset(gctx, gi, indexer.AsIndexer(relInChunk), piece)
		})
	}
	return g.Wait()
}

func sameShape(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *Array) storeGeneric(ctx context.Context, ind indexer.Indexer, newData codec.ArrayBytes) error {
	pos := 0
	var walkErr error
	ind.Indices(func(idx []uint64) {
		if walkErr != nil {
			return
		}
		chunkIdx, err := a.Grid.ChunkIndices(idx)
		if err != nil {
			walkErr = err
			return
		}
		rel, err := a.Grid.ChunkElementIndices(idx)
		if err != nil {
			walkErr = err
			return
		}
		point, err := indexer.NewArraySubset(rel, onesLike(rel))
		if err != nil {
			walkErr = err
			return
		}
		var elem codec.ArrayBytes
		if newData.Kind == codec.VlenKind {
			src := newData.Element(pos)
			elem = codec.ArrayBytes{Kind: codec.VlenKind, Bytes: src, Offsets: []uint64{0, uint64(len(src))}}
		} else {
			elemSize, _ := a.DataType.Size.FixedSize()
			elem = codec.NewFlenArrayBytes(newData.Bytes[pos*elemSize : (pos+1)*elemSize])
		}
		if err := a.StoreChunkSubset(ctx, chunkIdx, indexer.AsIndexer(point), elem); err != nil {
			walkErr = err
			return
		}
		pos++
	})
	return walkErr
}
