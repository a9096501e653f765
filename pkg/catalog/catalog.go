// Package catalog owns the in-memory set of known firmware images and
// orchestrates the download pipeline around it: import what is already on
// disk, fetch and parse manifests, resolve a single image for a router or
// download a whole channel.
package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	lru "github.com/hashicorp/golang-lru"

	"github.com/freifunk-luebeck/fwds/pkg/downloader"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/manifest"
	"github.com/freifunk-luebeck/fwds/pkg/routermodel"
)

type manifestMemo interface {
	Get(key any) (value any, ok bool)
	Add(key, value any)
}

type dummyMemo struct{}

var _ manifestMemo = (*dummyMemo)(nil)

func (dummyMemo) Get(key any) (value any, ok bool) {
	return nil, false
}

func (dummyMemo) Add(key, value any) {}

// Manager is the firmware catalog of one mirror. A Manager instance is owned
// by a single caller: the catalog and its storage tree are not safe for
// concurrent mutation.
type Manager struct {
	cfg         config
	baseURL     string
	storageRoot string
	transport   downloader.Transport
	verifier    *downloader.Verifier
	memo        manifestMemo

	images []firmware.Image
}

// New returns a catalog Manager for the mirror at baseURL, storing images
// under storageRoot.
func New(
	baseURL string,
	storageRoot string,
	transport downloader.Transport,
	opts ...Option,
) (*Manager, error) {
	cfg := getConfig(opts...)

	memo := manifestMemo(dummyMemo{})
	if cfg.manifestCacheSize > 0 {
		cache, err := lru.New2Q(cfg.manifestCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create the manifest memo: %w", err)
		}
		memo = cache
	}

	return &Manager{
		cfg:         cfg,
		baseURL:     baseURL,
		storageRoot: storageRoot,
		transport:   transport,
		verifier:    downloader.New(transport),
		memo:        memo,
	}, nil
}

// Images returns a snapshot of the catalog in its current order.
func (m *Manager) Images() []firmware.Image {
	images := make([]firmware.Image, len(m.images))
	copy(images, m.images)
	return images
}

// Reset drops every record from the catalog. The storage tree is untouched.
func (m *Manager) Reset() {
	m.images = nil
}

// GetStoredFirmware resolves a router model against the catalog and returns
// the first image whose name contains the normalized matching key. Earlier
// entries shadow later ones, the iteration order is part of the contract.
func (m *Manager) GetStoredFirmware(ctx context.Context, routerModel string) (firmware.Image, error) {
	name, version, err := routermodel.Parse(routerModel)
	if err != nil {
		return firmware.Image{}, err
	}
	key := routermodel.MatchKey(name, version)

	for _, image := range m.images {
		// substring containment: canonical names carry the organization
		// and the full version string around the router's own key
		if strings.Contains(image.Name, key) {
			logger.FromCtx(ctx).Infof("the stored firmware '%s' matches router '%s'", image.Name, routerModel)
			return image, nil
		}
	}
	logger.FromCtx(ctx).Infof("no stored firmware matches router '%s'", routerModel)
	return firmware.Image{}, ErrNotFound{RouterModel: routerModel, Key: key}
}

// channelEntries downloads the channel's manifest, mirrors it into the
// storage tree and parses it. Parsing is memoized on the manifest content,
// the download itself never is: the manifest is the one mutable resource in
// the pipeline.
func (m *Manager) channelEntries(ctx context.Context, channel firmware.ReleaseChannel) ([]manifest.Entry, error) {
	manifestURL := firmware.ManifestURL(m.baseURL, channel)
	m.transport.Forget(manifestURL)
	raw, err := m.transport.Fetch(ctx, manifestURL)
	if err != nil {
		return nil, ErrManifestDownload{Err: err, Channel: channel}
	}

	if err := m.mirrorManifest(ctx, channel, raw); err != nil {
		return nil, err
	}

	key := manifestMemoKey(raw)
	if v, ok := m.memo.Get(key); ok {
		return v.([]manifest.Entry), nil
	}

	entries, err := manifest.Parse(raw, channel, m.baseURL, m.storageRoot)
	if err != nil {
		return nil, err
	}
	m.memo.Add(key, entries)
	return entries, nil
}

// mirrorManifest stores the fetched manifest next to the images it
// describes, so the staging file server exposes the same layout as the
// upstream mirror and devices can run their autoupdater against it.
func (m *Manager) mirrorManifest(ctx context.Context, channel firmware.ReleaseChannel, raw []byte) error {
	dir := firmware.ChannelDir(m.storageRoot, channel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return downloader.ErrMkdir{Err: err, Path: dir}
	}

	path := firmware.ManifestPath(m.storageRoot, channel)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return downloader.ErrWriteFile{Err: err, Path: path}
	}
	logger.FromCtx(ctx).Debugf("mirrored the %s manifest to '%s'", channel, path)
	return nil
}

func manifestMemoKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return string(sum[:])
}
