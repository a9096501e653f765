// Package helpers holds the plumbing shared by the fwdscli verbs.
package helpers

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/freifunk-luebeck/fwds/pkg/catalog"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/fetchcache"
	"github.com/freifunk-luebeck/fwds/pkg/fetcher"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
	"github.com/freifunk-luebeck/fwds/pkg/labconfig"
	"github.com/freifunk-luebeck/fwds/pkg/remotectl"
)

const (
	fetchCacheMemoryLimit = 256 * (1 << 20) // 256MiB
	fetchCacheTTL         = time.Hour
)

// LoadLabConfig reads the lab configuration the way every verb does: from
// the path given by the global -lab-config flag, falling back to the default
// location.
func LoadLabConfig(ctx context.Context, cfg commands.Config) (*labconfig.Config, error) {
	path := cfg.LabConfigPath
	if path == "" {
		path = labconfig.DefaultPath()
	}
	return labconfig.Load(ctx, path)
}

// OpenJournal opens the outcome journal if the lab configures one. Without a
// configured journal it returns (nil, nil) and the verb runs journal-less.
func OpenJournal(ctx context.Context, labCfg *labconfig.Config) (*journal.Journal, error) {
	if labCfg.Journal.DSN == "" {
		return nil, nil
	}
	return journal.New(labCfg.Journal.Driver, labCfg.Journal.DSN)
}

// NewCatalog builds the catalog manager for the lab's mirror and storage
// tree. A non-nil journal is wired in, so that every download the verb
// triggers is recorded.
func NewCatalog(ctx context.Context, labCfg *labconfig.Config, j *journal.Journal, opts ...catalog.Option) (*catalog.Manager, error) {
	if j != nil {
		opts = append(opts, catalog.OptionJournal{Journal: j})
	}
	return catalog.New(labCfg.Server.BaseURL, labCfg.Server.StorageRoot, NewTransport(ctx), opts...)
}

// NewTransport returns the HTTP transport of the pipeline, with the byte
// cache attached. A verb that downloads the same image for a batch of
// routers hits the mirror once.
func NewTransport(ctx context.Context) *fetcher.Fetcher {
	cache, err := fetchcache.New(fetchCacheMemoryLimit, fetchCacheTTL)
	if err != nil {
		logger.FromCtx(ctx).Errorf("unable to initialize the fetch cache, downloads go uncached: %v", err)
		return fetcher.New()
	}
	return fetcher.New(fetcher.OptionCache{Cache: cache})
}

// NewExecutor returns the SSH executor controlling a racked router.
func NewExecutor(router labconfig.Router) *remotectl.SSH {
	return remotectl.NewSSH(router.Host, router.Port, router.Username, router.Password)
}
