package cache_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/TuSKan/go-zarr/cache"
	"github.com/stretchr/testify/require"
)

func TestCountLimitedEviction(t *testing.T) {
	c, err := cache.NewCountLimited(2)
	require.NoError(t, err)

	c.Set("a", cache.Entry{Encoded: []byte("1")})
	c.Set("b", cache.Entry{Encoded: []byte("2")})
	c.Set("c", cache.Entry{Encoded: []byte("3")})

	require.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestByteLimitedEviction(t *testing.T) {
	c, err := cache.NewByteLimited(10)
	require.NoError(t, err)

	c.Set("a", cache.Entry{Encoded: make([]byte, 6)})
	c.Set("b", cache.Entry{Encoded: make([]byte, 6)})

	require.Equal(t, 1, c.Len(), "adding b should evict a to stay under the byte budget")
	_, ok := c.Get("b")
	require.True(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, err := cache.NewCountLimited(4)
	require.NoError(t, err)
	c.Set("k", cache.Entry{Encoded: []byte("x")})
	c.Invalidate("k")
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestGetOrInsertDeduplicatesConcurrentMisses(t *testing.T) {
	c, err := cache.NewCountLimited(4)
	require.NoError(t, err)

	var calls int64
	fetch := func(ctx context.Context) (cache.Entry, error) {
		atomic.AddInt64(&calls, 1)
		return cache.Entry{Encoded: []byte("v")}, nil
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_, err := c.GetOrInsert(context.Background(), "shared", fetch)
			require.NoError(t, err)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
	require.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(1))
	e, ok := c.Get("shared")
	require.True(t, ok)
	require.Equal(t, []byte("v"), e.Encoded)
}

func TestThreadLocalScopesAreIndependent(t *testing.T) {
	tl := cache.NewThreadLocal(func() (*cache.Cache, error) {
		return cache.NewCountLimited(4)
	})

	c0, err := tl.For(0)
	require.NoError(t, err)
	c1, err := tl.For(1)
	require.NoError(t, err)
	require.NotSame(t, c0, c1)

	c0.Set("k", cache.Entry{Encoded: []byte("v")})
	_, ok := c1.Get("k")
	require.False(t, ok)

	c0Again, err := tl.For(0)
	require.NoError(t, err)
	require.Same(t, c0, c0Again)
}

func TestThreadLocalKeyVariesWithLocalID(t *testing.T) {
	a := cache.ThreadLocalKey("chunk/0/0", 1)
	b := cache.ThreadLocalKey("chunk/0/0", 2)
	require.NotEqual(t, a, b)
}
