package catalog

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// ImportFirmwares scans the channel's sysupgrade directory and appends every
// image found there to the catalog. It returns the amount of imported
// images. A missing or unreadable directory is not an error, the catalog is
// simply left as it was.
func (m *Manager) ImportFirmwares(ctx context.Context, channel firmware.ReleaseChannel) int {
	log := logger.FromCtx(ctx)

	dir := firmware.ChannelDir(m.storageRoot, channel)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("unable to import firmwares from '%s': %v", dir, err)
		return 0
	}

	count := 0
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		if name == firmware.ManifestName(channel) {
			continue
		}
		image, err := firmware.NewImage(name, channel, m.baseURL, m.storageRoot)
		if err != nil {
			log.Warnf("unable to import '%s': %v", name, err)
			continue
		}
		m.images = append(m.images, image)
		count++
	}

	log.Debugf("imported %d firmwares from '%s'", count, dir)
	return count
}
