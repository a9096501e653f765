package fetcher

import (
	"net/http"
)

type config struct {
	client *http.Client
	cache  Cache
}

type Option interface {
	apply(*config)
}

// OptionHTTPClient overrides the HTTP client used for downloads
// (http.DefaultClient if not set).
type OptionHTTPClient struct {
	Client *http.Client
}

func (opt OptionHTTPClient) apply(cfg *config) {
	cfg.client = opt.Client
}

// OptionCache sets the byte cache consulted before going to the network.
// Without it every Fetch hits the upstream mirror.
type OptionCache struct {
	Cache Cache
}

func (opt OptionCache) apply(cfg *config) {
	cfg.cache = opt.Cache
}

func getConfig(opts ...Option) config {
	cfg := config{
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}
