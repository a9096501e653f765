package firmware

import (
	"crypto/sha512"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

// IDSize is the byte length of an ImageID: a SHA2-512 digest followed by a
// BLAKE3-512 digest of the same content.
const IDSize = sha512.Size + 512/8

// ImageID is the content-based identity of a downloaded image. It depends
// only on the image bytes (never on the name), so re-downloading the same
// artifact always yields the same ID. The journal keys verified downloads by
// it, and the deployer uses it to match a staged artifact against journal
// records. See https://en.wikipedia.org/wiki/Content-addressable_storage
type ImageID [IDSize]byte

var (
	_ json.Marshaler   = (*ImageID)(nil)
	_ json.Unmarshaler = (*ImageID)(nil)
	_ driver.Valuer    = (*ImageID)(nil)
	_ sql.Scanner      = (*ImageID)(nil)
	_ flag.Value       = (*ImageID)(nil)
)

// NewImageIDFromImage hashes image content into an ImageID. The two digests
// are computed concurrently, they land in disjoint halves of the ID.
func NewImageIDFromImage(image []byte) ImageID {
	var id ImageID
	blakeDone := make(chan struct{})
	go func() {
		defer close(blakeDone)
		sum := blake3.Sum512(image)
		copy(id[sha512.Size:], sum[:])
	}()
	sum := sha512.Sum512(image)
	copy(id[:sha512.Size], sum[:])
	<-blakeDone
	return id
}

// ParseImageID decodes the canonical hex form (as produced by String). An
// optional "0x" prefix is accepted.
func ParseImageID(in string) (ImageID, error) {
	var id ImageID
	decoded, err := hex.DecodeString(strings.TrimPrefix(in, "0x"))
	if err != nil {
		return id, fmt.Errorf("not a hex image ID: %w", err)
	}
	if len(decoded) != IDSize {
		return id, fmt.Errorf("an image ID is %d bytes, received %d", IDSize, len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

// String implements fmt.Stringer.
func (imgID ImageID) String() string {
	return hex.EncodeToString(imgID[:])
}

// IsZero reports whether the ID was never computed.
func (imgID ImageID) IsZero() bool {
	return imgID == ImageID{}
}

// MarshalJSON implements json.Marshaler.
func (imgID ImageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(imgID.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (imgID *ImageID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseImageID(s)
	if err != nil {
		return err
	}
	*imgID = parsed
	return nil
}

// Set implements flag.Value.
func (imgID *ImageID) Set(in string) error {
	parsed, err := ParseImageID(in)
	if err != nil {
		return err
	}
	*imgID = parsed
	return nil
}

// Value implements driver.Valuer; the zero ID is stored as NULL.
func (imgID ImageID) Value() (driver.Value, error) {
	if imgID.IsZero() {
		return nil, nil
	}
	return imgID[:], nil
}

// Scan implements sql.Scanner.
func (imgID *ImageID) Scan(src any) error {
	if src == nil {
		*imgID = ImageID{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into an image ID", src)
	}
	if len(b) != IDSize {
		return fmt.Errorf("an image ID is %d bytes, received %d", IDSize, len(b))
	}
	copy((*imgID)[:], b)
	return nil
}
