package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// Event says what kind of outcome a Record describes.
type Event string

const (
	// EventDownload is a verified-download outcome.
	EventDownload = Event("download")

	// EventDeploy is a device-flash outcome.
	EventDeploy = Event("deploy")
)

// Record is one journal row: the outcome of a verified download or of a
// deployment. Download records carry no JobID; deploy records are unique per
// JobID.
type Record struct {
	ID int64 `db:"id"`

	// ImageID is the content ID of the image bytes. NULL (zero) when the
	// download never produced verified bytes.
	ImageID firmware.ImageID `db:"image_id"`

	ImageName string `db:"image_name"`

	Channel firmware.ReleaseChannel

	// ExpectedHash is the digest the manifest promised at download time.
	ExpectedHash string `db:"expected_hash"`

	// Attempts is the number of fetch attempts spent.
	Attempts int

	Verified bool

	Event Event

	// JobID identifies the deployment this record belongs to, NULL for
	// plain downloads.
	JobID *uuid.UUID `db:"job_id"`

	TS time.Time `db:"ts"`
}
