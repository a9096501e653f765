package catalog

import (
	"fmt"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// ErrNotFound implements "error", for the description see Error.
type ErrNotFound struct {
	RouterModel string
	Key         string
}

func (err ErrNotFound) Error() string {
	return fmt.Sprintf("no firmware matches router model '%s' (matching key: '%s')", err.RouterModel, err.Key)
}

// ErrManifestDownload implements "error", for the description see Error.
type ErrManifestDownload struct {
	Err     error
	Channel firmware.ReleaseChannel
}

func (err ErrManifestDownload) Error() string {
	return fmt.Sprintf("unable to download the %s manifest: %v", err.Channel, err.Err)
}

func (err ErrManifestDownload) Unwrap() error {
	return err.Err
}
