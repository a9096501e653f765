package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"

	"github.com/freifunk-luebeck/fwds/pkg/catalog"
	"github.com/freifunk-luebeck/fwds/pkg/fetchcache"
	"github.com/freifunk-luebeck/fwds/pkg/fetcher"
	"github.com/freifunk-luebeck/fwds/pkg/fileserver"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
	"github.com/freifunk-luebeck/fwds/pkg/observability"
)

const (
	bindAddrDefault    = ":8080"
	storageRootDefault = "/var/lib/fwds"
	baseURLDefault     = "https://firmware.luebeck.freifunk.net"

	fetchCacheMemoryLimit = 256 * (1 << 20) // 256MiB
	fetchCacheTTL         = time.Hour
)

func assertNoError(ctx context.Context, err error) {
	if err != nil {
		logger.FromCtx(ctx).Fatalf("%v", err)
	}
}

func usageExit() {
	pflag.Usage()
	os.Exit(2) // The default Go's exitcode on flag.Parse() problems
}

func main() {
	logLevel := logger.LevelInfo // the default value
	dbAddr := os.Getenv("DBHOST")
	if dbAddr == "" {
		dbAddr = "127.0.0.1:3306"
	}
	defaultDSN := (&mysql.Config{
		User:      os.Getenv("DBUSER"),
		Passwd:    os.Getenv("DBPASS"),
		Net:       "tcp",
		Addr:      dbAddr,
		DBName:    "fwds",
		ParseTime: true,
	}).FormatDSN()

	pflag.Var(&logLevel, "log-level", "logging level")
	netPprofAddr := pflag.String("net-pprof-addr", "", "if non-empty then listens with net/http/pprof")
	bindAddr := pflag.String("bind-addr", bindAddrDefault, "the address the file server listens on")
	storageRoot := pflag.String("storage-root", storageRootDefault, "the root of the firmware storage tree")
	baseURL := pflag.String("base-url", baseURLDefault, "the base URL of the upstream firmware mirror")
	rdbmsDriver := pflag.String("rdbms-driver", "mysql", "")
	rdbmsDSN := pflag.String("rdbms-dsn", defaultDSN, "")
	useJournal := pflag.Bool("journal", true, "maintain the outcome journal and expose it under /v1/history")
	pflag.Parse()
	if pflag.NArg() != 0 {
		usageExit()
	}

	ctx := observability.WithBelt(
		context.Background(),
		logLevel,
		"FWDS", true,
	)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()

	log := logger.FromCtx(ctx)

	if *netPprofAddr != "" {
		go func() {
			err := http.ListenAndServe(*netPprofAddr, nil)
			log.Errorf("unable to start listening for https/net/pprof: %v", err)
		}()
	}

	var fileserverOptions []fileserver.Option
	if *useJournal {
		j, err := journal.New(*rdbmsDriver, *rdbmsDSN)
		assertNoError(ctx, err)
		defer j.Close()
		fileserverOptions = append(fileserverOptions, fileserver.OptionJournal{Journal: j})
	}

	fetchCache, err := fetchcache.New(fetchCacheMemoryLimit, fetchCacheTTL)
	assertNoError(ctx, err)

	catalogManager, err := catalog.New(*baseURL, *storageRoot, fetcher.New(fetcher.OptionCache{Cache: fetchCache}))
	assertNoError(ctx, err)
	for _, channel := range firmware.ReleaseChannels() {
		count := catalogManager.ImportFirmwares(ctx, channel)
		log.Debugf("imported %d stored firmwares of channel '%s'", count, channel)
	}
	log.Infof("the catalog knows %d stored firmwares", len(catalogManager.Images()))

	srv := fileserver.New(catalogManager, *storageRoot, fileserverOptions...)
	assertNoError(ctx, srv.ListenAndServe(ctx, *bindAddr))
}
