package labconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

func testCtx() context.Context {
	return logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
}

const testConfig = `
server:
  base_url: http://firmware.ffhl.example.org
  storage_root: /srv/fwds
  listen_addr: 127.0.0.1:8080
  staging_url: http://192.168.123.1:8080/firmwares

journal:
  dsn: fwds:hunter2@tcp(127.0.0.1:3306)/fwds?parseTime=true

routers:
  - name: rack-1
    host: 192.168.123.20
    model: TP-LINK TL-WR841N/ND v9
    password: admin
  - name: rack-2
    host: 192.168.123.21
    port: 2222
    username: operator
    password: hunter2
    model: TP-LINK TL-WR1043N/ND v2
    channel: beta
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "lab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(testCtx(), writeConfig(t, testConfig))
	require.NoError(t, err)

	require.Equal(t, "http://firmware.ffhl.example.org", cfg.Server.BaseURL)
	require.Equal(t, "/srv/fwds", cfg.Server.StorageRoot)
	require.Equal(t, "http://192.168.123.1:8080/firmwares", cfg.Server.StagingURL)
	require.Len(t, cfg.Routers, 2)

	// the driver defaults to mysql once a DSN is given
	require.Equal(t, "fwds:hunter2@tcp(127.0.0.1:3306)/fwds?parseTime=true", cfg.Journal.DSN)
	require.Equal(t, "mysql", cfg.Journal.Driver)

	// unset fields receive the lab defaults
	require.Equal(t, 22, cfg.Routers[0].Port)
	require.Equal(t, "root", cfg.Routers[0].Username)
	require.Equal(t, firmware.ReleaseChannelStable, cfg.Routers[0].Channel)

	require.Equal(t, 2222, cfg.Routers[1].Port)
	require.Equal(t, "operator", cfg.Routers[1].Username)
	require.Equal(t, firmware.ReleaseChannelBeta, cfg.Routers[1].Channel)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(testCtx(), filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.Routers)
	require.Equal(t, "/var/lib/fwds", cfg.Server.StorageRoot)
}

func TestLoadInvalidChannel(t *testing.T) {
	path := writeConfig(t, `
routers:
  - name: rack-1
    host: 192.168.123.20
    channel: nightly
`)
	_, err := Load(testCtx(), path)
	var errParse ErrParseConfig
	require.ErrorAs(t, err, &errParse)
}

func TestRouterLookup(t *testing.T) {
	cfg, err := Load(testCtx(), writeConfig(t, testConfig))
	require.NoError(t, err)

	router, err := cfg.Router("rack-2")
	require.NoError(t, err)
	require.Equal(t, "192.168.123.21", router.Host)

	_, err = cfg.Router("rack-9")
	var errNotFound ErrRouterNotFound
	require.ErrorAs(t, err, &errNotFound)
	require.Equal(t, "rack-9", errNotFound.Name)
}
