package catalog

import (
	"context"

	"github.com/freifunk-luebeck/fwds/pkg/downloader"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

// Journal receives the outcome of every download the catalog performs.
// Implemented by *journal.Journal; nil disables journaling without changing
// pipeline semantics.
type Journal interface {
	RecordDownload(ctx context.Context, record *journal.Record) error
}

type config struct {
	maxAttempts       int
	manifestCacheSize int
	journal           Journal
}

type Option interface {
	apply(*config)
}

// OptionMaxAttempts overrides the per-image download attempt budget
// (downloader.DefaultMaxAttempts if not set).
type OptionMaxAttempts int

func (opt OptionMaxAttempts) apply(cfg *config) {
	cfg.maxAttempts = int(opt)
}

// OptionManifestCacheSize sets how many parsed manifests are memoized; 0
// disables the memo.
type OptionManifestCacheSize int

func (opt OptionManifestCacheSize) apply(cfg *config) {
	cfg.manifestCacheSize = int(opt)
}

// OptionJournal attaches an outcome journal.
type OptionJournal struct {
	Journal Journal
}

func (opt OptionJournal) apply(cfg *config) {
	cfg.journal = opt.Journal
}

func getConfig(opts ...Option) config {
	cfg := config{
		maxAttempts:       downloader.DefaultMaxAttempts,
		manifestCacheSize: 16,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}
