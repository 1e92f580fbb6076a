// Package sharding implements the "sharding_indexed" array-to-bytes codec:
// it packs a regular sub-grid of inner chunks, each independently encoded
// by an inner CodecChain, into a single outer chunk alongside a shard
// index recording each inner chunk's (offset, size) within the shard
// (spec.md §4.4).
package sharding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/TuSKan/go-zarr/chunkgrid"
	"github.com/TuSKan/go-zarr/codec"
	"github.com/TuSKan/go-zarr/indexer"
	"github.com/TuSKan/go-zarr/storage"
	"github.com/TuSKan/go-zarr/zarrerr"
	"github.com/TuSKan/go-zarr/zarrtype"
)

// indexElementType is the data type of the shard index's flattened
// (offset, size) table when it is threaded through IndexCodecs: one
// little-endian uint64 per table entry.
func indexElementType() zarrtype.DataType {
	return zarrtype.DataType{Name: "uint64", Size: zarrtype.Fixed(8), Endian: zarrtype.LittleEndian}
}

// IndexLocation selects whether the shard index is written before
// (Start) or after (End) the packed inner chunks.
type IndexLocation int

const (
	Start IndexLocation = iota
	End
)

// absent, stored as both offset and size, marks an inner chunk slot with no data: the
// shard's equivalent of the fill value (spec.md §4.4.1).
const absent = math.MaxUint64

// ShardIndex is the decoded (offset, size) table for every inner chunk in
// a shard, flattened in C order over the inner grid shape.
type ShardIndex struct {
	GridShape []uint64
	Offsets   []uint64
	Sizes     []uint64
}

// NewAbsentShardIndex builds an index with every slot marked absent.
func NewAbsentShardIndex(gridShape []uint64) ShardIndex {
	n := uint64(1)
	for _, d := range gridShape {
		n *= d
	}
	idx := ShardIndex{GridShape: gridShape, Offsets: make([]uint64, n), Sizes: make([]uint64, n)}
	for i := range idx.Offsets {
		idx.Offsets[i] = absent
		idx.Sizes[i] = absent
	}
	return idx
}

func (idx ShardIndex) linear(innerIdx []uint64) uint64 {
	strides := indexer.CStrides(idx.GridShape)
	var lin uint64
	for i, v := range innerIdx {
		lin += v * strides[i]
	}
	return lin
}

// IsPresent reports whether the inner chunk at innerIdx has data.
func (idx ShardIndex) IsPresent(innerIdx []uint64) bool {
	lin := idx.linear(innerIdx)
	return idx.Offsets[lin] != absent
}

// Range returns the byte range of the inner chunk at innerIdx, or false if
// absent.
func (idx ShardIndex) Range(innerIdx []uint64) (offset, size uint64, ok bool) {
	lin := idx.linear(innerIdx)
	if idx.Offsets[lin] == absent {
		return 0, 0, false
	}
	return idx.Offsets[lin], idx.Sizes[lin], true
}

func (idx *ShardIndex) set(innerIdx []uint64, offset, size uint64) {
	lin := idx.linear(innerIdx)
	idx.Offsets[lin] = offset
	idx.Sizes[lin] = size
}

// indexBytesLen is the on-disk size of the (offset,size) table: 16 bytes
// per inner chunk, little-endian u64 pairs.
func indexBytesLen(gridShape []uint64) uint64 {
	n := uint64(1)
	for _, d := range gridShape {
		n *= d
	}
	return n * 16
}

func encodeIndexBytes(idx ShardIndex) []byte {
	out := make([]byte, len(idx.Offsets)*16)
	for i := range idx.Offsets {
		binary.LittleEndian.PutUint64(out[i*16:], idx.Offsets[i])
		binary.LittleEndian.PutUint64(out[i*16+8:], idx.Sizes[i])
	}
	return out
}

func decodeIndexBytes(raw []byte, gridShape []uint64) (ShardIndex, error) {
	n := uint64(1)
	for _, d := range gridShape {
		n *= d
	}
	if uint64(len(raw)) != n*16 {
		return ShardIndex{}, fmt.Errorf("%w: shard index has %d bytes, want %d", zarrerr.ErrCodec, len(raw), n*16)
	}
	idx := ShardIndex{GridShape: gridShape, Offsets: make([]uint64, n), Sizes: make([]uint64, n)}
	for i := uint64(0); i < n; i++ {
		idx.Offsets[i] = binary.LittleEndian.Uint64(raw[i*16:])
		idx.Sizes[i] = binary.LittleEndian.Uint64(raw[i*16+8:])
	}
	return idx, nil
}

// Codec is the "sharding_indexed" array-to-bytes codec.
type Codec struct {
	ChunkShape    []uint64
	IndexCodecs   *codec.CodecChain
	InnerCodecs   *codec.CodecChain
	IndexLocation IndexLocation
}

// New builds a sharding codec. innerCodecs encodes each inner chunk's
// decoded content; indexCodecs (typically just a bytes codec plus a
// checksum) encodes the index table itself.
func New(chunkShape []uint64, innerCodecs, indexCodecs *codec.CodecChain, loc IndexLocation) *Codec {
	return &Codec{ChunkShape: chunkShape, IndexCodecs: indexCodecs, InnerCodecs: innerCodecs, IndexLocation: loc}
}

func (c *Codec) innerGrid(rep codec.ChunkRepresentation) (*chunkgrid.Regular, []uint64, error) {
	grid, err := chunkgrid.NewRegular(rep.Shape, c.ChunkShape)
	if err != nil {
		return nil, nil, err
	}
	return grid, grid.GridShape(), nil
}

func (c *Codec) innerRepresentation(rep codec.ChunkRepresentation) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{Shape: c.ChunkShape, DataType: rep.DataType, FillValue: rep.FillValue}
}

// Encode packs every inner chunk of ab into a single shard, each encoded
// independently through InnerCodecs, alongside an index encoded through
// IndexCodecs (spec.md §4.4.2).
func (c *Codec) Encode(ctx context.Context, ab codec.ArrayBytes, rep codec.ChunkRepresentation, opts codec.Options) ([]byte, error) {
	grid, gridShape, err := c.innerGrid(rep)
	if err != nil {
		return nil, err
	}
	innerRep := c.innerRepresentation(rep)
	idx := NewAbsentShardIndex(gridShape)

	var innerPositions [][]uint64
	gridSubset, err := indexer.NewArraySubset(make([]uint64, len(gridShape)), gridShape)
	if err != nil {
		return nil, err
	}
	gridSubset.Indices(func(gi []uint64) {
		innerPositions = append(innerPositions, append([]uint64(nil), gi...))
	})

	encoded := make([][]byte, len(innerPositions))
	g, gctx := errgroup.WithContext(ctx)
	outer, _ := codec.ConcurrencyChunksAndCodec(opts.Concurrency.ConcurrentTarget, len(innerPositions), c.InnerCodecs.RecommendedConcurrency(innerRep))
	sem := make(chan struct{}, outer)
	for i, gi := range innerPositions {
		i, gi := i, gi
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			sub, err := chunkgrid.ChunkSubset(grid, gi)
			if err != nil {
				return err
			}
			piece, err := codec.ExtractArrayBytes(ab, rep, indexer.AsIndexer(sub))
			if err != nil {
				return err
			}
			if codec.IsAllFill(piece, innerRep) {
				return nil
			}
			raw, err := c.InnerCodecs.Encode(gctx, piece, innerRep, opts)
			if err != nil {
				return err
			}
			encoded[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var offset uint64
	var body []byte
	for i, gi := range innerPositions {
		if encoded[i] == nil {
			continue
		}
		idx.set(gi, offset, uint64(len(encoded[i])))
		body = append(body, encoded[i]...)
		offset += uint64(len(encoded[i]))
	}

	indexBytes, err := c.IndexCodecs.Encode(ctx, codec.NewFlenArrayBytes(encodeIndexBytes(idx)), codec.ChunkRepresentation{Shape: []uint64{uint64(len(idx.Offsets) * 2)}, DataType: indexElementType()}, opts)
	if err != nil {
		return nil, err
	}

	var out []byte
	if c.IndexLocation == Start {
		out = append(out, indexBytes...)
		out = append(out, body...)
	} else {
		out = append(out, body...)
		out = append(out, indexBytes...)
	}
	return out, nil
}

// Decode unpacks a shard: reads the index, then decodes every present
// inner chunk, filling absent slots with rep's fill value.
func (c *Codec) Decode(ctx context.Context, raw []byte, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayBytes, error) {
	grid, gridShape, err := c.innerGrid(rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	idx, body, err := c.splitAndDecodeIndex(ctx, raw, gridShape, opts)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	innerRep := c.innerRepresentation(rep)

	full, err := codec.FillArrayBytes(rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}

	var positions [][]uint64
	gridSubset, err := indexer.NewArraySubset(make([]uint64, len(gridShape)), gridShape)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	gridSubset.Indices(func(gi []uint64) {
		if idx.IsPresent(gi) {
			positions = append(positions, append([]uint64(nil), gi...))
		}
	})

	decoded := make([]codec.ArrayBytes, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	for i, gi := range positions {
		i, gi := i, gi
		g.Go(func() error {
			off, size, _ := idx.Range(gi)
			if off+size > uint64(len(body)) {
				return fmt.Errorf("%w: The shard index references out-of-bounds bytes. The chunk may be corrupted.", zarrerr.ErrCodec)
			}
			chunkRaw := body[off : off+size]
			ab, err := c.InnerCodecs.Decode(gctx, chunkRaw, innerRep, opts)
			if err != nil {
				return err
			}
			decoded[i] = ab
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return codec.ArrayBytes{}, err
	}

	for i, gi := range positions {
		sub, err := chunkgrid.ChunkSubset(grid, gi)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		full, err = codec.UpdateArrayBytes(full, rep, indexer.AsIndexer(sub), decoded[i])
		if err != nil {
			return codec.ArrayBytes{}, err
		}
	}
	return full, nil
}

func (c *Codec) splitAndDecodeIndex(ctx context.Context, raw []byte, gridShape []uint64, opts codec.Options) (ShardIndex, []byte, error) {
	n := uint64(1)
	for _, d := range gridShape {
		n *= d
	}
	indexRep, err := c.IndexCodecs.EncodedRepresentation(codec.ChunkRepresentation{Shape: []uint64{n * 2}, DataType: indexElementType()})
	if err != nil {
		return ShardIndex{}, nil, err
	}
	if indexRep.Kind != codec.Fixed {
		return ShardIndex{}, nil, fmt.Errorf("%w: shard index must have a fixed encoded size", zarrerr.ErrCodec)
	}
	indexLen := indexRep.Size
	var indexBytes, body []byte
	if c.IndexLocation == Start {
		if uint64(len(raw)) < indexLen {
			return ShardIndex{}, nil, fmt.Errorf("%w: shard shorter than its index", zarrerr.ErrCodec)
		}
		indexBytes, body = raw[:indexLen], raw[indexLen:]
	} else {
		if uint64(len(raw)) < indexLen {
			return ShardIndex{}, nil, fmt.Errorf("%w: shard shorter than its index", zarrerr.ErrCodec)
		}
		split := uint64(len(raw)) - indexLen
		body, indexBytes = raw[:split], raw[split:]
	}
	decodedIdx, err := c.IndexCodecs.Decode(ctx, indexBytes, codec.ChunkRepresentation{Shape: []uint64{n * 2}, DataType: indexElementType()}, opts)
	if err != nil {
		return ShardIndex{}, nil, err
	}
	idx, err := decodeIndexBytes(decodedIdx.Bytes, gridShape)
	if err != nil {
		return ShardIndex{}, nil, err
	}
	return idx, body, nil
}

// EncodedRepresentation is unbounded: the packed inner chunks' sizes
// depend on their content.
func (c *Codec) EncodedRepresentation(rep codec.ChunkRepresentation) (codec.BytesRepresentation, error) {
	return codec.UnboundedRepresentation(), nil
}

func (c *Codec) PartialDecoderDecodesAll() bool { return false }

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{PartialEncode: true}
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) codec.RecommendedConcurrency {
	_, gridShape, err := c.innerGrid(rep)
	if err != nil {
		return codec.SerialConcurrency()
	}
	n := 1
	for _, d := range gridShape {
		n *= int(d)
	}
	return codec.RecommendedConcurrency{Min: 1, Max: n}
}

// PartialDecoder builds a shard-aware partial decoder that reads the shard
// index once, then fetches only the inner chunks intersecting a given
// Indexer's region (spec.md §4.4.3, §4.4.4's cache is layered on top by the
// array core, not this codec).
func (c *Codec) PartialDecoder(input codec.BytesPartialDecoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &partialDecoder{codec: c, input: input, rep: rep, opts: opts}, nil
}

type partialDecoder struct {
	codec *Codec
	input codec.BytesPartialDecoder
	rep   codec.ChunkRepresentation
	opts  codec.Options

	loaded bool
	idx    ShardIndex
	bodyOff uint64
}

func (p *partialDecoder) ensureIndex(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	raws, found, err := p.input.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return err
	}
	if !found {
		_, gridShape, gerr := p.codec.innerGrid(p.rep)
		if gerr != nil {
			return gerr
		}
		p.idx = NewAbsentShardIndex(gridShape)
		p.loaded = true
		return nil
	}
	_, gridShape, err := p.codec.innerGrid(p.rep)
	if err != nil {
		return err
	}
	idx, _, err := p.codec.splitAndDecodeIndex(ctx, raws[0], gridShape, p.opts)
	if err != nil {
		return err
	}
	p.idx = idx
	if p.codec.IndexLocation == Start {
		indexRep, _ := p.codec.IndexCodecs.EncodedRepresentation(codec.ChunkRepresentation{Shape: []uint64{uint64(len(idx.Offsets) * 2)}, DataType: indexElementType()})
		p.bodyOff = indexRep.Size
	}
	p.loaded = true
	return nil
}

func (p *partialDecoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	if err := p.ensureIndex(ctx); err != nil {
		return codec.ArrayBytes{}, err
	}
	grid, _, err := p.codec.innerGrid(p.rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	innerRep := p.codec.innerRepresentation(p.rep)

	sub, ok := ind.AsArraySubset()
	if !ok {
		full, err := p.decodeFull(ctx)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		return codec.ExtractArrayBytes(full, p.rep, ind)
	}
	chunkRange, err := chunkgrid.ChunksInArraySubset(grid, sub)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	result, err := codec.FillArrayBytes(codec.ChunkRepresentation{Shape: sub.Shape, DataType: p.rep.DataType, FillValue: p.rep.FillValue})
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	var chunks [][]uint64
	chunkRange.Indices(func(gi []uint64) {
		chunks = append(chunks, append([]uint64(nil), gi...))
	})
	for _, gi := range chunks {
		if !p.idx.IsPresent(gi) {
			continue
		}
		off, size, _ := p.idx.Range(gi)
		length := size
		raws, found, err := p.input.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(p.bodyOff+off, &length)})
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		if !found {
			continue
		}
		if uint64(len(raws[0])) != size {
			return codec.ArrayBytes{}, fmt.Errorf("%w: The shard index references out-of-bounds bytes. The chunk may be corrupted.", zarrerr.ErrCodec)
		}
		ab, err := p.codec.InnerCodecs.Decode(ctx, raws[0], innerRep, p.opts)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		chunkSub, err := chunkgrid.ChunkSubset(grid, gi)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		overlap, err := chunkSub.Overlap(sub)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		rel, err := overlap.RelativeTo(chunkSub.Start)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		piece, err := codec.ExtractArrayBytes(ab, innerRep, indexer.AsIndexer(rel))
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		relToResult, err := overlap.RelativeTo(sub.Start)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		result, err = codec.UpdateArrayBytes(result, codec.ChunkRepresentation{Shape: sub.Shape, DataType: p.rep.DataType, FillValue: p.rep.FillValue}, indexer.AsIndexer(relToResult), piece)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
	}
	return result, nil
}

func (p *partialDecoder) decodeFull(ctx context.Context) (codec.ArrayBytes, error) {
	raws, found, err := p.input.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	if !found {
		return codec.FillArrayBytes(p.rep)
	}
	return p.codec.Decode(ctx, raws[0], p.rep, p.opts)
}

// PartialEncoder builds a shard-aware partial encoder that only
// re-encodes the inner chunks a write touches: chunks the write fully
// replaces are never read; chunks the write only straddles are read,
// decoded, patched, and re-encoded. Newly encoded chunks are appended
// after the shard's existing data and the index is rewritten; bytes
// belonging to replaced chunks are never reclaimed (spec.md §4.4.2,
// grounded on sharding_partial_encoder.rs).
func (c *Codec) PartialEncoder(input codec.BytesPartialEncoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return &partialEncoder{codec: c, input: input, rep: rep, opts: opts}, nil
}

type partialEncoder struct {
	codec *Codec
	input codec.BytesPartialEncoder
	rep   codec.ChunkRepresentation
	opts  codec.Options
}

func (e *partialEncoder) PartialDecode(ctx context.Context, ind indexer.Indexer) (codec.ArrayBytes, error) {
	pd, err := e.codec.PartialDecoder(e.input, e.rep, e.opts)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	return pd.PartialDecode(ctx, ind)
}

func (e *partialEncoder) Erase(ctx context.Context) error { return e.input.Erase(ctx) }

func (e *partialEncoder) SupportsPartialEncode() bool { return e.input.SupportsPartialEncode() }

// loadIndex reads the shard's current index, or an all-absent one if the
// shard does not exist yet, along with the byte offset its inner chunk
// data starts at.
func (e *partialEncoder) loadIndex(ctx context.Context, gridShape []uint64) (ShardIndex, uint64, error) {
	raws, found, err := e.input.PartialDecodeMany(ctx, []storage.ByteRange{storage.FromStart(0, nil)})
	if err != nil {
		return ShardIndex{}, 0, err
	}
	if !found {
		return NewAbsentShardIndex(gridShape), 0, nil
	}
	idx, _, err := e.codec.splitAndDecodeIndex(ctx, raws[0], gridShape, e.opts)
	if err != nil {
		return ShardIndex{}, 0, err
	}
	var bodyOff uint64
	if e.codec.IndexLocation == Start {
		n := uint64(len(idx.Offsets))
		indexRep, rerr := e.codec.IndexCodecs.EncodedRepresentation(codec.ChunkRepresentation{Shape: []uint64{n * 2}, DataType: indexElementType()})
		if rerr != nil {
			return ShardIndex{}, 0, rerr
		}
		bodyOff = indexRep.Size
	}
	return idx, bodyOff, nil
}

func allAbsent(idx ShardIndex) bool {
	for _, off := range idx.Offsets {
		if off != absent {
			return false
		}
	}
	return true
}

// fullyContains reports whether inner lies entirely within outer on every
// axis: a fully-replaced inner chunk never needs to be read back.
func fullyContains(outer, inner indexer.ArraySubset) bool {
	outerEnd := outer.EndExc()
	innerEnd := inner.EndExc()
	for i := range inner.Start {
		if inner.Start[i] < outer.Start[i] || innerEnd[i] > outerEnd[i] {
			return false
		}
	}
	return true
}

type touchedChunk struct {
	gi      []uint64
	encoded []byte // nil if the patched chunk is now entirely fill value
}

func (e *partialEncoder) PartialEncode(ctx context.Context, ind indexer.Indexer, newData codec.ArrayBytes) error {
	sub, ok := ind.AsArraySubset()
	if !ok {
		return fmt.Errorf("%w: sharding_indexed does not support partial encoding with non-rectangular indexers", zarrerr.ErrCodec)
	}
	subEnd := sub.EndExc()
	for i, v := range subEnd {
		if v > e.rep.Shape[i] {
			return fmt.Errorf("%w: partial encode region exceeds shard shape", zarrerr.ErrInvalidArraySubset)
		}
	}

	grid, gridShape, err := e.codec.innerGrid(e.rep)
	if err != nil {
		return err
	}
	innerRep := e.codec.innerRepresentation(e.rep)
	selRep := codec.ChunkRepresentation{Shape: sub.Shape, DataType: e.rep.DataType, FillValue: e.rep.FillValue}

	idx, bodyOff, err := e.loadIndex(ctx, gridShape)
	if err != nil {
		return err
	}

	var maxDataOffset uint64
	for i := range idx.Offsets {
		if idx.Offsets[i] != absent {
			if end := idx.Offsets[i] + idx.Sizes[i]; end > maxDataOffset {
				maxDataOffset = end
			}
		}
	}

	chunkRange, err := chunkgrid.ChunksInArraySubset(grid, sub)
	if err != nil {
		return err
	}
	var touched [][]uint64
	chunkRange.Indices(func(gi []uint64) {
		touched = append(touched, append([]uint64(nil), gi...))
	})

	results := make([]touchedChunk, len(touched))
	g, gctx := errgroup.WithContext(ctx)
	for i, gi := range touched {
		i, gi := i, gi
		g.Go(func() error {
			chunkSub, err := chunkgrid.ChunkSubset(grid, gi)
			if err != nil {
				return err
			}

			var decoded codec.ArrayBytes
			switch {
			case fullyContains(sub, chunkSub):
				decoded, err = codec.FillArrayBytes(innerRep)
			case idx.IsPresent(gi):
				off, size, _ := idx.Range(gi)
				length := size
				raws, found, rerr := e.input.PartialDecodeMany(gctx, []storage.ByteRange{storage.FromStart(bodyOff+off, &length)})
				if rerr != nil {
					return rerr
				}
				if !found || uint64(len(raws[0])) != size {
					return fmt.Errorf("%w: The shard index references out-of-bounds bytes. The chunk may be corrupted.", zarrerr.ErrCodec)
				}
				decoded, err = e.codec.InnerCodecs.Decode(gctx, raws[0], innerRep, e.opts)
			default:
				decoded, err = codec.FillArrayBytes(innerRep)
			}
			if err != nil {
				return err
			}

			overlap, err := sub.Overlap(chunkSub)
			if err != nil {
				return err
			}
			relInSel, err := overlap.RelativeTo(sub.Start)
			if err != nil {
				return err
			}
			piece, err := codec.ExtractArrayBytes(newData, selRep, indexer.AsIndexer(relInSel))
			if err != nil {
				return err
			}
			relInChunk, err := overlap.RelativeTo(chunkSub.Start)
			if err != nil {
				return err
			}
			decoded, err = codec.UpdateArrayBytes(decoded, innerRep, indexer.AsIndexer(relInChunk), piece)
			if err != nil {
				return err
			}

			if codec.IsAllFill(decoded, innerRep) {
				results[i] = touchedChunk{gi: gi}
				return nil
			}
			encoded, err := e.codec.InnerCodecs.Encode(gctx, decoded, innerRep, e.opts)
			if err != nil {
				return err
			}
			results[i] = touchedChunk{gi: gi, encoded: encoded}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		idx.set(r.gi, absent, absent)
	}
	if allAbsent(idx) {
		if err := e.input.Erase(ctx); err != nil {
			return err
		}
		maxDataOffset = 0
	}

	n := uint64(len(idx.Offsets))
	indexRep, err := e.codec.IndexCodecs.EncodedRepresentation(codec.ChunkRepresentation{Shape: []uint64{n * 2}, DataType: indexElementType()})
	if err != nil {
		return err
	}
	offsetNewChunks := maxDataOffset
	if e.codec.IndexLocation == Start && indexRep.Size > offsetNewChunks {
		offsetNewChunks = indexRep.Size
	}

	var body []byte
	offsetAppend := offsetNewChunks
	for _, r := range results {
		if r.encoded == nil {
			continue
		}
		idx.set(r.gi, offsetAppend, uint64(len(r.encoded)))
		body = append(body, r.encoded...)
		offsetAppend += uint64(len(r.encoded))
	}

	if allAbsent(idx) {
		return e.input.Erase(ctx)
	}

	indexBytes, err := e.codec.IndexCodecs.Encode(ctx, codec.NewFlenArrayBytes(encodeIndexBytes(idx)), codec.ChunkRepresentation{Shape: []uint64{n * 2}, DataType: indexElementType()}, e.opts)
	if err != nil {
		return err
	}

	var writes []storage.OffsetBytes
	if e.codec.IndexLocation == Start {
		writes = []storage.OffsetBytes{{Offset: 0, Bytes: indexBytes}, {Offset: offsetNewChunks, Bytes: body}}
	} else {
		tail := append(append([]byte(nil), body...), indexBytes...)
		writes = []storage.OffsetBytes{{Offset: offsetNewChunks, Bytes: tail}}
	}
	return e.input.PartialEncodeMany(ctx, writes)
}
