package array

import (
	"context"

	"github.com/TuSKan/go-zarr/storage"
)

// storePartial adapts one key of a storage.Store to codec.BytesPartialDecoder
// / codec.BytesPartialEncoder, the bridge every chunk/shard-level partial
// decode or encode path in Array is built on.
type storePartial struct {
	store storage.Store
	key   string
}

func (s *storePartial) PartialDecodeMany(ctx context.Context, ranges []storage.ByteRange) ([][]byte, bool, error) {
	return s.store.GetPartialMany(ctx, s.key, ranges)
}

func (s *storePartial) PartialEncodeMany(ctx context.Context, writes []storage.OffsetBytes) error {
	return s.store.SetPartialMany(ctx, s.key, writes)
}

func (s *storePartial) Erase(ctx context.Context) error {
	return s.store.Erase(ctx, s.key)
}

func (s *storePartial) SupportsPartialEncode() bool {
	return s.store.SupportsSetPartial()
}
