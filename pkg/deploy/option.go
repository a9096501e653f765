package deploy

import (
	"context"
	"time"

	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

// Journal records deployment outcomes and answers whether a verified
// download of an image is on record. Implemented by *journal.Journal; nil
// disables journaling (but not verification).
type Journal interface {
	RecordDeploy(ctx context.Context, record *journal.Record) error
	Find(ctx context.Context, filters ...journal.Filter) ([]journal.Record, error)
}

type config struct {
	journal       Journal
	stagingDir    string
	stagingURL    string
	unpackImage   bool
	pollInterval  time.Duration
	lossTimeout   time.Duration
	returnTimeout time.Duration
}

type Option interface {
	apply(*config)
}

// OptionJournal attaches the outcome journal. It is also consulted before a
// flash: an image with no manifest digest at hand is trusted only if the
// journal holds a verified download of the same content.
type OptionJournal struct {
	Journal Journal
}

func (opt OptionJournal) apply(cfg *config) {
	cfg.journal = opt.Journal
}

// OptionStagingDir overrides where on the device the image is staged.
// The default is /tmp: a tmpfs, so an aborted deployment leaves nothing on
// the overlay.
type OptionStagingDir string

func (opt OptionStagingDir) apply(cfg *config) {
	cfg.stagingDir = string(opt)
}

// OptionStagingURL makes the device pull the image from the staging file
// server instead of receiving it over the control connection. The value is
// the base URL the storage tree is served under.
type OptionStagingURL string

func (opt OptionStagingURL) apply(cfg *config) {
	cfg.stagingURL = string(opt)
}

// OptionUnpack unpacks compressed images (see pkg/unpack) before staging.
type OptionUnpack bool

func (opt OptionUnpack) apply(cfg *config) {
	cfg.unpackImage = bool(opt)
}

// OptionPollInterval sets how often reachability is probed while waiting for
// the device to reboot.
type OptionPollInterval time.Duration

func (opt OptionPollInterval) apply(cfg *config) {
	cfg.pollInterval = time.Duration(opt)
}

// OptionLossTimeout sets how long the device may stay reachable after
// sysupgrade before the deployment counts as failed.
type OptionLossTimeout time.Duration

func (opt OptionLossTimeout) apply(cfg *config) {
	cfg.lossTimeout = time.Duration(opt)
}

// OptionReturnTimeout sets how long the device may stay unreachable after
// the flash before the deployment counts as failed.
type OptionReturnTimeout time.Duration

func (opt OptionReturnTimeout) apply(cfg *config) {
	cfg.returnTimeout = time.Duration(opt)
}

func getConfig(opts ...Option) config {
	cfg := config{
		stagingDir:    "/tmp",
		pollInterval:  5 * time.Second,
		lossTimeout:   2 * time.Minute,
		returnTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}
