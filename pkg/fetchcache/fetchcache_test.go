package fetchcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := New(1<<20, 0)
	require.NoError(t, err)

	cache.Set("http://example.org/a.bin", []byte("image-a"))
	cache.Wait()

	b, ok := cache.Get("http://example.org/a.bin")
	require.True(t, ok)
	require.Equal(t, []byte("image-a"), b)

	_, ok = cache.Get("http://example.org/b.bin")
	require.False(t, ok)

	cache.Del("http://example.org/a.bin")
	cache.Wait()
	_, ok = cache.Get("http://example.org/a.bin")
	require.False(t, ok)
}

func TestCacheTTL(t *testing.T) {
	cache, err := New(1<<20, 10*time.Millisecond)
	require.NoError(t, err)

	cache.Set("k", []byte("v"))
	cache.Wait()

	time.Sleep(50 * time.Millisecond)
	_, ok := cache.Get("k")
	require.False(t, ok)
}
