// Package fetcher implements the HTTP transport the firmware pipeline
// retrieves manifests and images through.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/tracer"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// Cache is a byte cache keyed by URL. Entries may be evicted at any time.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Del(key string)
}

// Fetcher downloads resources over HTTP(S).
//
// Requests for the same URL are deduplicated: if multiple Fetch calls for one
// URL overlap, only one real HTTP request is issued and all callers receive
// its result. Successful downloads are stored in the optional Cache; callers
// that must not observe cached content (mutable resources, re-fetch after a
// failed verification) call Forget first.
type Fetcher struct {
	cfg config

	jobsMutex sync.Mutex
	jobs      map[string]*fetchJob
}

// New returns an instance of Fetcher.
func New(opts ...Option) *Fetcher {
	return &Fetcher{
		cfg:  getConfig(opts...),
		jobs: map[string]*fetchJob{},
	}
}

// Fetch retrieves the resource at fetchURL and returns its bytes.
func (f *Fetcher) Fetch(ctx context.Context, fetchURL string) ([]byte, error) {
	ctx = beltctx.WithField(ctx, "pkg", "fetcher")

	if f.cfg.cache != nil {
		if b, ok := f.cfg.cache.Get(fetchURL); ok {
			logger.FromCtx(ctx).Debugf("cache hit for '%s': len:%d", fetchURL, len(b))
			return b, nil
		}
	}

	job := f.fetch(ctx, fetchURL)
	<-job.Done()
	logger.FromCtx(ctx).Debugf("fetch received results: len:%d, err:%v", len(job.Bytes), job.Error)
	return job.Bytes, job.Error
}

// Forget drops any cached content for fetchURL, forcing the next Fetch to go
// to the network. In-flight requests are unaffected.
func (f *Fetcher) Forget(fetchURL string) {
	if f.cfg.cache != nil {
		f.cfg.cache.Del(fetchURL)
	}
}

func (f *Fetcher) fetch(ctx context.Context, fetchURL string) *fetchJob {

	// If there are multiple overlapping Fetch requests for the same URL,
	// they all wait for one real HTTP request to complete. So for each URL
	// we create a job and re-use it if necessary.

	span, ctx := tracer.StartChildSpanFromCtx(ctx, "Fetcher.fetch")
	defer span.Finish()
	log := logger.FromCtx(ctx)

	f.jobsMutex.Lock()
	defer f.jobsMutex.Unlock()

	job := f.jobs[fetchURL]
	if job != nil {
		return job
	}

	log.Debugf("creating a new fetch job for '%s'", fetchURL)
	job = f.newFetchJob(ctx, fetchURL, func(b []byte) {
		log.Debugf("finished downloading '%s'", fetchURL)

		if f.cfg.cache != nil {
			f.cfg.cache.Set(fetchURL, b)
		}
	})
	f.jobs[fetchURL] = job
	return job
}

type fetchJob struct {
	Bytes []byte
	Error error

	ctx      context.Context
	client   *http.Client
	url      string
	doneChan chan struct{}
}

func (f *Fetcher) newFetchJob(
	ctx context.Context,
	fetchURL string,
	onSuccess func([]byte),
) (job *fetchJob) {
	job = &fetchJob{
		ctx:      beltctx.WithField(ctx, "fetchJob", fetchURL),
		client:   f.cfg.client,
		url:      fetchURL,
		doneChan: make(chan struct{}),
	}
	go func() {
		defer close(job.doneChan)
		defer func() {
			// a completed job never serves a second Fetch: failed
			// downloads must be retried with a real request, successful
			// ones are served from the cache
			f.jobsMutex.Lock()
			f.jobs[fetchURL] = nil
			f.jobsMutex.Unlock()
			logger.FromCtx(ctx).Debugf("download '%s' result: len:%d, err:%v", fetchURL, len(job.Bytes), job.Error)
		}()

		job.fetch()
		if job.Error != nil {
			return
		}

		onSuccess(job.Bytes)
	}()
	return
}

func (job *fetchJob) Done() <-chan struct{} {
	return job.doneChan
}

func (job *fetchJob) fetch() {
	parsedURL, err := url.Parse(job.url)
	if err != nil {
		job.Error = ErrParseURL{Err: err, URL: job.url}
		return
	}

	switch parsedURL.Scheme {
	case "http", "https":
		job.Bytes, job.Error = job.httpFetch()
	default:
		job.Error = ErrUnknownScheme{Scheme: parsedURL.Scheme, URL: job.url}
	}
}

func (job *fetchJob) httpFetch() ([]byte, error) {
	log := logger.FromCtx(job.ctx)
	log.Debugf("downloading a file from '%s'", job.url)

	req, err := http.NewRequestWithContext(job.ctx, http.MethodGet, job.url, nil)
	if err != nil {
		err = ErrHTTPMakeRequest{Err: err, URL: job.url}
		log.Errorf("internal error: %v", err)
		return nil, err
	}

	resp, err := job.client.Do(req)
	if err != nil {
		return nil, ErrHTTPGet{Err: err, URL: job.url}
	}
	defer resp.Body.Close()
	log.Debugf("status code: %d", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("invalid response status code: %d", resp.StatusCode)
		return nil, ErrHTTPGet{Err: ErrStatusCode{Code: resp.StatusCode}, URL: job.url}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrHTTPGetBody{Err: err, URL: job.url}
	}

	return b, nil
}
