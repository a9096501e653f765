package firmware

import (
	"path/filepath"
	"strings"
)

// UpdateSysupgrade is the update type distributed by this service. It is part
// of every storage path and download URL. Upstream also builds "factory"
// images, but those are never pushed to already-provisioned nodes.
const UpdateSysupgrade = "sysupgrade"

// ChannelDir returns the storage directory holding the images of a channel:
// <storageRoot>/<channel>/sysupgrade.
func ChannelDir(storageRoot string, channel ReleaseChannel) string {
	return filepath.Join(storageRoot, channel.String(), UpdateSysupgrade)
}

// StoragePath returns the filesystem destination of an image:
// <storageRoot>/<channel>/sysupgrade/<name>.
func StoragePath(storageRoot string, channel ReleaseChannel, name string) string {
	return filepath.Join(ChannelDir(storageRoot, channel), name)
}

// DownloadURL returns the download URL of an image:
// <baseURL>/<channel>/sysupgrade/<name>.
func DownloadURL(baseURL string, channel ReleaseChannel, name string) string {
	return joinURL(baseURL, channel.String(), UpdateSysupgrade, name)
}

// ManifestName returns the file name of a channel's manifest, which is
// published (and mirrored locally) next to the images it describes.
func ManifestName(channel ReleaseChannel) string {
	return channel.String() + ".manifest"
}

// ManifestURL returns the retrieval endpoint of a channel's manifest:
// <baseURL>/<channel>/sysupgrade/<channel>.manifest.
func ManifestURL(baseURL string, channel ReleaseChannel) string {
	return joinURL(baseURL, channel.String(), UpdateSysupgrade, ManifestName(channel))
}

// ManifestPath returns where a channel's manifest is mirrored in the storage
// tree, so that the staging file server exposes it under the same relative
// path as the upstream mirror.
func ManifestPath(storageRoot string, channel ReleaseChannel) string {
	return filepath.Join(ChannelDir(storageRoot, channel), ManifestName(channel))
}

func joinURL(base string, elems ...string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(elems, "/")
}
