package indexer

// Indexer is the polymorphic generalisation of ArraySubset: either a
// rectangular region or an arbitrary list of index tuples (ArrayIndices).
// Core code accepts Indexer; fast paths call AsArraySubset and branch.
type Indexer interface {
	// Dimensionality returns the number of axes the indexer addresses.
	Dimensionality() int
	// Len returns the total number of elements the indexer selects.
	Len() uint64
	// OutputShape describes the shape an extraction into a fresh buffer
	// would have: for an ArraySubset this is its Shape; for an arbitrary
	// index list it is typically [Len()].
	OutputShape() []uint64
	// Indices calls fn for every selected index tuple, in the indexer's
	// natural order. fn must not retain the slice it is given.
	Indices(fn func(idx []uint64))
	// AsArraySubset returns the ArraySubset and true when the indexer is in
	// fact rectangular, enabling contiguous-run fast paths.
	AsArraySubset() (ArraySubset, bool)
}

// arraySubsetIndexer adapts ArraySubset to Indexer.
type arraySubsetIndexer struct{ ArraySubset }

func (a arraySubsetIndexer) Dimensionality() int       { return a.ArraySubset.Dimensionality() }
func (a arraySubsetIndexer) Len() uint64                { return a.ArraySubset.NumElements() }
func (a arraySubsetIndexer) OutputShape() []uint64      { return append([]uint64(nil), a.Shape...) }
func (a arraySubsetIndexer) Indices(fn func(idx []uint64)) { a.ArraySubset.Indices(fn) }
func (a arraySubsetIndexer) AsArraySubset() (ArraySubset, bool) { return a.ArraySubset, true }

// AsIndexer wraps an ArraySubset as an Indexer.
func AsIndexer(s ArraySubset) Indexer { return arraySubsetIndexer{s} }

// IndexList is an Indexer over an arbitrary, non-rectangular set of index
// tuples, each of the same dimensionality.
type IndexList struct {
	dims    int
	indices [][]uint64
}

// NewIndexList builds an IndexList. It returns false if the tuples disagree
// on dimensionality.
func NewIndexList(indices [][]uint64) (IndexList, bool) {
	if len(indices) == 0 {
		return IndexList{}, true
	}
	dims := len(indices[0])
	for _, idx := range indices {
		if len(idx) != dims {
			return IndexList{}, false
		}
	}
	return IndexList{dims: dims, indices: indices}, true
}

func (l IndexList) Dimensionality() int { return l.dims }
func (l IndexList) Len() uint64         { return uint64(len(l.indices)) }
func (l IndexList) OutputShape() []uint64 {
	return []uint64{uint64(len(l.indices))}
}
func (l IndexList) Indices(fn func(idx []uint64)) {
	for _, idx := range l.indices {
		fn(idx)
	}
}
func (l IndexList) AsArraySubset() (ArraySubset, bool) { return ArraySubset{}, false }
