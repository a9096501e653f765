package fileserver

import (
	"context"

	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

// Journal is the read side of the outcome journal. Implemented by
// *journal.Journal.
type Journal interface {
	Find(ctx context.Context, filters ...journal.Filter) ([]journal.Record, error)
}

type config struct {
	journal Journal
}

type Option interface {
	apply(*config)
}

// OptionJournal exposes the outcome journal under /v1/history. Without it
// the endpoint does not exist.
type OptionJournal struct {
	Journal Journal
}

func (opt OptionJournal) apply(cfg *config) {
	cfg.journal = opt.Journal
}

func getConfig(opts ...Option) config {
	var cfg config
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}
