package firmware

import (
	"fmt"
	"strings"
)

// Image describes one firmware image of a release channel. It is a plain
// immutable value: construct it through NewImage and do not modify it
// afterwards.
//
// The canonical image name has the form
//
//	gluon-<organization>-<version>-…-sysupgrade.<ext>
//
// so Organization and Version are always recoverable from Name alone. This
// is relied upon both when parsing a manifest and when re-importing images
// from the storage tree.
type Image struct {
	// Name is the canonical image file name.
	Name string

	// Version is the firmware version, the third hyphen-delimited segment
	// of Name.
	Version string

	// Organization is the tag of the distributing organization, the second
	// hyphen-delimited segment of Name.
	Organization string

	// ReleaseChannel is the distribution track the image belongs to.
	ReleaseChannel ReleaseChannel

	// LocalPath is the filesystem destination of the downloaded artifact:
	// <storageRoot>/<channel>/sysupgrade/<Name>.
	LocalPath string

	// SourceURL is the fully qualified download URL:
	// <baseURL>/<channel>/sysupgrade/<Name>.
	SourceURL string
}

// ErrMalformedImageName implements "error", for the description see Error.
type ErrMalformedImageName struct {
	Name string
}

func (err ErrMalformedImageName) Error() string {
	return fmt.Sprintf("image name '%s' does not contain an organization and a version (expected at least 3 hyphen-delimited segments)", err.Name)
}

// OrgVersion extracts the organization tag and the firmware version from a
// canonical image name. Returns ErrMalformedImageName if the name has fewer
// than 3 hyphen-delimited segments.
func OrgVersion(name string) (organization string, version string, err error) {
	segments := strings.Split(name, "-")
	if len(segments) < 3 {
		return "", "", ErrMalformedImageName{Name: name}
	}
	return segments[1], segments[2], nil
}

// NewImage constructs an Image from a canonical image name, deriving
// Organization and Version from the name and LocalPath/SourceURL from the
// storage/URL layout (see StoragePath and DownloadURL).
func NewImage(
	name string,
	channel ReleaseChannel,
	baseURL string,
	storageRoot string,
) (Image, error) {
	org, version, err := OrgVersion(name)
	if err != nil {
		return Image{}, err
	}
	return Image{
		Name:           name,
		Version:        version,
		Organization:   org,
		ReleaseChannel: channel,
		LocalPath:      StoragePath(storageRoot, channel, name),
		SourceURL:      DownloadURL(baseURL, channel, name),
	}, nil
}

// String implements fmt.Stringer.
func (img Image) String() string {
	return fmt.Sprintf("%s[%s]", img.Name, img.ReleaseChannel)
}
