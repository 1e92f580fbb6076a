// Package cache implements the chunk cache: an LRU store keyed by chunk
// key that can hold a chunk's encoded bytes, its decoded ArrayBytes, or a
// live partial decoder, with either a fixed entry-count bound or a
// byte-weighted bound (spec.md §7). Cache misses are de-duplicated with
// singleflight so concurrent readers of the same chunk trigger exactly one
// retrieve, grounded on the teacher corpus's prefix-store LRU pattern.
package cache

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Entry is the union of the three payload kinds a cache slot can hold for
// one chunk (spec.md §7): at most one is non-nil.
type Entry struct {
	Encoded []byte
	Decoded any
	Partial any
}

func (e Entry) weight() uint64 {
	if e.Encoded != nil {
		return uint64(len(e.Encoded))
	}
	if e.Decoded != nil || e.Partial != nil {
		// Decoded buffers and partial decoders don't expose a uniform byte
		// size; charge a nominal unit so byte-weighted caches still evict
		// them under pressure rather than growing unbounded.
		return 1
	}
	return 0
}

// Cache is a chunk cache keyed by an opaque string key (the store key a
// chunk's bytes live at). Construct via NewCountLimited or
// NewByteLimited.
type Cache struct {
	mu        sync.Mutex
	entries   *lru.Cache[string, Entry]
	byteLimit uint64
	byteUsed  uint64
	weighted  bool
	group     singleflight.Group
}

// NewCountLimited builds a cache holding at most maxEntries chunks,
// evicting the least recently used when full.
func NewCountLimited(maxEntries int) (*Cache, error) {
	l, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: l}, nil
}

// NewByteLimited builds a cache evicting least-recently-used entries once
// the sum of payload weights exceeds maxBytes. It still needs an internal
// count bound to satisfy golang-lru's constructor; that bound is set high
// enough that byte pressure is always the binding constraint in practice.
func NewByteLimited(maxBytes uint64) (*Cache, error) {
	l, err := lru.New[string, Entry](1 << 20)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: l, byteLimit: maxBytes, weighted: true}, nil
}

// Get returns the cached entry for key, if present.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Set stores an entry for key, evicting older byte-weighted entries first
// if the cache is byte-limited.
func (c *Cache) Set(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries.Peek(key); ok {
		c.byteUsed -= old.weight()
	}
	c.entries.Add(key, e)
	c.byteUsed += e.weight()
	if c.weighted {
		for c.byteUsed > c.byteLimit {
			_, v, ok := c.entries.RemoveOldest()
			if !ok {
				break
			}
			c.byteUsed -= v.weight()
		}
	}
}

// Invalidate removes key's entry, used when a write makes a cached chunk
// stale (spec.md §7, §9 Open Question on same-shard invalidation: the
// array core invalidates by key on every successful store, which also
// covers two Array instances sharing a store backend, since they see the
// same keys).
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries.Peek(key); ok {
		c.byteUsed -= old.weight()
	}
	c.entries.Remove(key)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// GetOrInsert returns key's cached entry, computing and storing it via
// fetch on a miss. Concurrent callers for the same key block on a single
// in-flight fetch rather than each performing their own (spec.md §7
// "try_get_or_insert_with").
func (c *Cache) GetOrInsert(ctx context.Context, key string, fetch func(ctx context.Context) (Entry, error)) (Entry, error) {
	if e, ok := c.Get(key); ok {
		return e, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		e, err := fetch(ctx)
		if err != nil {
			return Entry{}, err
		}
		c.Set(key, e)
		return e, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// ThreadLocalKey hashes a chunk key together with a goroutine- (or
// caller-) local discriminator into one 64-bit key with xxhash. ThreadLocal
// does not call it: its caches are keyed by the local ID alone.
func ThreadLocalKey(chunkKey string, localID uint64) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(chunkKey)
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(localID >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// ThreadLocal is a per-goroutine cache scope: each LocalID gets its own
// independent Cache, avoiding lock contention between unrelated workers
// reading disjoint chunks concurrently.
type ThreadLocal struct {
	mu      sync.Mutex
	factory func() (*Cache, error)
	caches  map[uint64]*Cache
}

// NewThreadLocal builds a ThreadLocal scope whose per-goroutine caches are
// built by factory on first use.
func NewThreadLocal(factory func() (*Cache, error)) *ThreadLocal {
	return &ThreadLocal{factory: factory, caches: make(map[uint64]*Cache)}
}

// For returns the Cache for localID, creating it on first use.
func (t *ThreadLocal) For(localID uint64) (*Cache, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.caches[localID]; ok {
		return c, nil
	}
	c, err := t.factory()
	if err != nil {
		return nil, err
	}
	t.caches[localID] = c
	return c, nil
}
