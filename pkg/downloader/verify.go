package downloader

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// VerifyBytes compares the digest of b against the hex digest the manifest
// promised. Exported for callers that verify artifacts they did not download
// themselves, e.g. a stored image about to be flashed.
func VerifyBytes(name string, b []byte, expectedHash string) error {
	return verifyImageBytes(name, b, expectedHash)
}

// verifyImageBytes compares the digest of the downloaded bytes against the
// hex digest the manifest promised. The manifest does not name its digest
// algorithm, the digest width has to select it: current gluon mirrors publish
// SHA-512, older ones SHA-256.
func verifyImageBytes(name string, b []byte, expectedHash string) error {
	var actual string
	switch len(expectedHash) {
	case sha256.Size * 2:
		sum := sha256.Sum256(b)
		actual = hex.EncodeToString(sum[:])
	case sha512.Size384 * 2:
		sum := sha512.Sum384(b)
		actual = hex.EncodeToString(sum[:])
	case sha512.Size * 2:
		sum := sha512.Sum512(b)
		actual = hex.EncodeToString(sum[:])
	default:
		return ErrUnknownDigest{Hash: expectedHash}
	}

	if actual != strings.ToLower(expectedHash) {
		return ErrHashMismatch{
			Name:     name,
			Expected: strings.ToLower(expectedHash),
			Actual:   actual,
		}
	}
	return nil
}
