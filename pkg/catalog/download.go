package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"github.com/freifunk-luebeck/fwds/pkg/downloader"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
	"github.com/freifunk-luebeck/fwds/pkg/manifest"
	"github.com/freifunk-luebeck/fwds/pkg/routermodel"
)

// DownloadFirmware resolves a router model against the channel's manifest
// and downloads the first matching image into the storage tree. The returned
// Result reports how the download went; the image is returned even when the
// download did not verify, its file may still be useful for manual
// inspection.
func (m *Manager) DownloadFirmware(
	ctx context.Context,
	routerModel string,
	channel firmware.ReleaseChannel,
) (firmware.Image, downloader.Result, error) {
	entries, err := m.channelEntries(ctx, channel)
	if err != nil {
		return firmware.Image{}, downloader.Result{}, err
	}

	entry, err := matchEntry(entries, routerModel)
	if err != nil {
		return firmware.Image{}, downloader.Result{}, err
	}

	result, err := m.verifier.Download(ctx, entry.Image, entry.ExpectedHash, m.cfg.maxAttempts)
	m.journalDownload(ctx, entry, result)
	return entry.Image, result, err
}

// ManifestEntry resolves a router model against the channel's manifest and
// returns the matching entry without downloading anything. This is how a
// caller learns the digest the mirror promises for an image.
func (m *Manager) ManifestEntry(
	ctx context.Context,
	routerModel string,
	channel firmware.ReleaseChannel,
) (manifest.Entry, error) {
	entries, err := m.channelEntries(ctx, channel)
	if err != nil {
		return manifest.Entry{}, err
	}
	return matchEntry(entries, routerModel)
}

func matchEntry(entries []manifest.Entry, routerModel string) (manifest.Entry, error) {
	name, version, err := routermodel.Parse(routerModel)
	if err != nil {
		return manifest.Entry{}, err
	}
	key := routermodel.MatchKey(name, version)

	for _, entry := range entries {
		if strings.Contains(entry.Image.Name, key) {
			return entry, nil
		}
	}
	return manifest.Entry{}, ErrNotFound{RouterModel: routerModel, Key: key}
}

// DownloadAllFirmwares downloads every image the channel's manifest lists
// and returns the verified ones in manifest order. Unverified images are
// dropped from the returned slice (their outcome is visible through the
// journal); storage errors are collected and returned as an aggregate.
func (m *Manager) DownloadAllFirmwares(ctx context.Context, channel firmware.ReleaseChannel) ([]firmware.Image, error) {
	entries, err := m.channelEntries(ctx, channel)
	if err != nil {
		return nil, err
	}

	var images []firmware.Image
	var mErr *multierror.Error
	for _, entry := range entries {
		result, err := m.verifier.Download(ctx, entry.Image, entry.ExpectedHash, m.cfg.maxAttempts)
		m.journalDownload(ctx, entry, result)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to download '%s': %w", entry.Image.Name, err))
			continue
		}
		if !result.Verified {
			continue
		}
		images = append(images, entry.Image)
	}

	logger.FromCtx(ctx).Infof("%d/%d firmwares downloaded", len(images), len(entries))
	return images, mErr.ErrorOrNil()
}

// GetFirmware returns a firmware image for the given router model, fetching
// it from the mirror if the catalog cannot serve it yet.
//
// With downloadAll set the whole channel is downloaded and the catalog is
// replaced by the verified images; otherwise the catalog is consulted first
// and only on a miss the single matching image is downloaded and appended.
// Either way the images already in the storage tree are imported up front.
func (m *Manager) GetFirmware(
	ctx context.Context,
	routerModel string,
	channel firmware.ReleaseChannel,
	downloadAll bool,
) (firmware.Image, error) {
	m.ImportFirmwares(ctx, channel)

	if downloadAll {
		images, err := m.DownloadAllFirmwares(ctx, channel)
		if err != nil {
			return firmware.Image{}, err
		}
		m.images = images
		return m.GetStoredFirmware(ctx, routerModel)
	}

	image, err := m.GetStoredFirmware(ctx, routerModel)
	switch {
	case err == nil:
		return image, nil
	case !isNotFound(err):
		return firmware.Image{}, err
	}

	image, result, err := m.DownloadFirmware(ctx, routerModel, channel)
	switch {
	case err == nil:
		// the image joins the catalog even when it did not verify: a
		// broken upstream hash must not hide the file we did store
		if !result.Verified {
			logger.FromCtx(ctx).Warnf("the firmware '%s' was stored but could not be verified", image.Name)
		}
		m.images = append(m.images, image)
	case isNotFound(err):
		logger.FromCtx(ctx).Warnf("the %s manifest lists no firmware for router '%s'", channel, routerModel)
	default:
		return firmware.Image{}, err
	}

	return m.GetStoredFirmware(ctx, routerModel)
}

func (m *Manager) journalDownload(ctx context.Context, entry manifest.Entry, result downloader.Result) {
	if m.cfg.journal == nil {
		return
	}

	record := journal.Record{
		ImageID:      result.ImageID,
		ImageName:    entry.Image.Name,
		Channel:      entry.Image.ReleaseChannel,
		ExpectedHash: entry.ExpectedHash,
		Attempts:     result.Attempts,
		Verified:     result.Verified,
	}
	if err := m.cfg.journal.RecordDownload(ctx, &record); err != nil {
		logger.FromCtx(ctx).Warnf("unable to journal the download of '%s': %v", entry.Image.Name, err)
	}
}

func isNotFound(err error) bool {
	var errNotFound ErrNotFound
	return errors.As(err, &errNotFound)
}
