// Package labconfig reads the lab description used by the CLI: where the
// staging mirror runs and which routers are racked.
package labconfig

import (
	"context"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"
	"gopkg.in/yaml.v3"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// Config is the lab configuration file.
type Config struct {
	// Server describes the staging file server of this lab.
	Server Server `yaml:"server"`

	// Journal describes the outcome journal database. An empty DSN means
	// the lab runs without a journal.
	Journal Journal `yaml:"journal"`

	// Routers is the rack inventory, addressed by name on the CLI.
	Routers []Router `yaml:"routers"`
}

// Journal describes the outcome journal database.
type Journal struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Server describes the staging file server and the upstream mirror it pulls
// from.
type Server struct {
	// BaseURL is the upstream firmware mirror.
	BaseURL string `yaml:"base_url"`

	// StorageRoot is the local directory the images are staged in.
	StorageRoot string `yaml:"storage_root"`

	// ListenAddr is the address the staging file server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// StagingURL is the URL under which the staging file server is
	// reachable from inside the lab network (the routers download
	// images from there).
	StagingURL string `yaml:"staging_url"`
}

// Router is one racked device.
type Router struct {
	Name     string                  `yaml:"name"`
	Host     string                  `yaml:"host"`
	Port     int                     `yaml:"port"`
	Username string                  `yaml:"username"`
	Password string                  `yaml:"password"`
	Model    string                  `yaml:"model"`
	Channel  firmware.ReleaseChannel `yaml:"channel"`
}

// DefaultPath returns the default lab configuration path:
// ~/.fwds/lab.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".fwds", "lab.yaml")
	}
	return filepath.Join(home, ".fwds", "lab.yaml")
}

// Load reads the lab configuration from the given YAML file path. If the
// file does not exist, it returns a default Config with no error (verbs that
// need a router then fail with ErrRouterNotFound).
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{
		Server: Server{
			StorageRoot: "/var/lib/fwds",
			ListenAddr:  ":8080",
		},
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, ErrReadConfig{Err: err, Path: path}
	}
	// the router entries carry passwords
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.FromCtx(ctx).Warnf(
			"lab config '%s' has permissions %04o, expected 0600: router credentials may be exposed to other users",
			path, perm,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrReadConfig{Err: err, Path: path}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ErrParseConfig{Err: err, Path: path}
	}

	if cfg.Journal.DSN != "" && cfg.Journal.Driver == "" {
		cfg.Journal.Driver = "mysql"
	}
	for idx := range cfg.Routers {
		applyRouterDefaults(&cfg.Routers[idx])
	}
	return cfg, nil
}

func applyRouterDefaults(r *Router) {
	if r.Port == 0 {
		r.Port = 22
	}
	if r.Username == "" {
		r.Username = "root"
	}
	if r.Channel == "" {
		r.Channel = firmware.ReleaseChannelStable
	}
}

// Router returns the inventory entry with the given name.
func (cfg *Config) Router(name string) (Router, error) {
	for _, router := range cfg.Routers {
		if router.Name == name {
			return router, nil
		}
	}
	return Router{}, ErrRouterNotFound{Name: name}
}
