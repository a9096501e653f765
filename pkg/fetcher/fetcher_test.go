package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{m: map[string][]byte{}}
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok
}

func (c *mapCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

func (c *mapCache) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func testCtx() context.Context {
	return logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
}

func TestFetch(t *testing.T) {
	var requests uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&requests, 1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := New()
	b, err := f.Fetch(testCtx(), srv.URL+"/stable/sysupgrade/img.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), b)
	require.EqualValues(t, 1, atomic.LoadUint64(&requests))
}

func TestFetchStatusCodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New()
	_, err := f.Fetch(testCtx(), srv.URL+"/missing.bin")
	require.Error(t, err)
	require.True(t, errors.As(err, &ErrHTTPGet{}))
	require.True(t, errors.As(err, &ErrStatusCode{}))
}

func TestFetchRetriesAfterFailure(t *testing.T) {
	var requests uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddUint64(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	ctx := testCtx()
	f := New()
	url := srv.URL + "/img.bin"

	_, err := f.Fetch(ctx, url)
	require.Error(t, err)

	// the failed job must not be replayed, the second Fetch issues a
	// real request
	b, err := f.Fetch(ctx, url)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), b)
	require.EqualValues(t, 2, atomic.LoadUint64(&requests))
}

func TestFetchUnknownScheme(t *testing.T) {
	f := New()
	_, err := f.Fetch(testCtx(), "ftp://example.org/img.bin")
	require.Error(t, err)
	require.True(t, errors.As(err, &ErrUnknownScheme{}))
}

func TestFetchUsesCache(t *testing.T) {
	var requests uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&requests, 1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	ctx := testCtx()
	f := New(OptionCache{Cache: newMapCache()})
	url := srv.URL + "/img.bin"

	for i := 0; i < 3; i++ {
		b, err := f.Fetch(ctx, url)
		require.NoError(t, err)
		require.Equal(t, []byte("payload"), b)
	}
	require.EqualValues(t, 1, atomic.LoadUint64(&requests))

	f.Forget(url)
	_, err := f.Fetch(ctx, url)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadUint64(&requests))
}

func TestFetchDeduplicatesInFlight(t *testing.T) {
	var requests uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&requests, 1)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	ctx := testCtx()
	f := New()
	url := srv.URL + "/img.bin"

	start := make(chan struct{})
	errChan := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			b, err := f.Fetch(ctx, url)
			if err == nil && string(b) != "payload" {
				err = fmt.Errorf("unexpected payload: %q", b)
			}
			if err != nil {
				errChan <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errChan)
	for err := range errChan {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, atomic.LoadUint64(&requests))
}
