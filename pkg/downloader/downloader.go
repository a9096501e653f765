// Package downloader performs verified firmware downloads: fetch the image,
// store it, compare its digest against the hash promised by the manifest,
// retry within a bounded attempt budget.
package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// DefaultMaxAttempts is the attempt budget used when the caller passes a
// non-positive one.
const DefaultMaxAttempts = 3

// Transport retrieves a resource by URL. Forget drops any cached copy, so
// that the next Fetch observes the upstream content again.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Forget(url string)
}

// Result is the outcome of one verified download. The image record always
// exists independently of this result: Verified says whether the bytes on
// disk are trustworthy, never conflate the two.
type Result struct {
	// Attempts is how many fetch attempts were actually performed.
	Attempts int

	// Verified is true if some attempt stored content matching the
	// expected hash.
	Verified bool

	// ImageID is the content ID of the verified bytes; zero if Verified
	// is false.
	ImageID firmware.ImageID
}

// Verifier downloads firmware images and verifies their content hashes.
type Verifier struct {
	transport Transport
}

// New returns an instance of Verifier.
func New(transport Transport) *Verifier {
	return &Verifier{
		transport: transport,
	}
}

// Download runs the verified-download loop for one image:
//
//	Fetch -> Store -> Verify -> Done
//	  ^________________|           (on transport failure or hash mismatch,
//	                                until maxAttempts attempts are spent)
//
// Attempts are independent, a failed one leaves nothing for the next to
// reuse. Transport failures and hash mismatches are absorbed here and only
// surface through Result: after the budget is exhausted the Result reports
// Verified=false with a nil error. Filesystem errors (ErrMkdir, ErrWriteFile)
// are fatal and propagate immediately.
func (v *Verifier) Download(
	ctx context.Context,
	image firmware.Image,
	expectedHash string,
	maxAttempts int,
) (Result, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	ctx = beltctx.WithField(ctx, "image", image.Name)
	log := logger.FromCtx(ctx)

	var result Result
	for result.Attempts < maxAttempts {
		result.Attempts++

		imageID, err := v.attempt(ctx, image, expectedHash)
		if err == nil {
			result.Verified = true
			result.ImageID = imageID
			log.Infof("the image '%s' was downloaded and verified (attempt %d/%d)",
				image.Name, result.Attempts, maxAttempts)
			metrics.FromCtx(ctx).Count("downloads_verified").Add(1)
			return result, nil
		}
		if isFatal(err) {
			return result, err
		}

		log.Debugf("download attempt %d/%d for '%s' failed: %v",
			result.Attempts, maxAttempts, image.Name, err)
		// the next attempt has to re-fetch, not replay a cached copy
		v.transport.Forget(image.SourceURL)
	}

	log.Warnf("the image '%s' couldn't be downloaded: %d attempts exhausted",
		image.Name, result.Attempts)
	metrics.FromCtx(ctx).Count("downloads_exhausted").Add(1)
	return result, nil
}

// attempt is one full pass of the machine: ensure the destination directory,
// fetch, store, verify.
func (v *Verifier) attempt(
	ctx context.Context,
	image firmware.Image,
	expectedHash string,
) (firmware.ImageID, error) {
	dir := filepath.Dir(image.LocalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return firmware.ImageID{}, ErrMkdir{Err: err, Path: dir}
	}

	b, err := v.transport.Fetch(ctx, image.SourceURL)
	if err != nil {
		return firmware.ImageID{}, err
	}

	if err := os.WriteFile(image.LocalPath, b, 0o644); err != nil {
		return firmware.ImageID{}, ErrWriteFile{Err: err, Path: image.LocalPath}
	}

	if err := verifyImageBytes(image.Name, b, expectedHash); err != nil {
		return firmware.ImageID{}, err
	}

	return firmware.NewImageIDFromImage(b), nil
}

// isFatal reports whether the error ends the download immediately instead of
// costing an attempt: a broken storage tree won't heal by re-fetching.
func isFatal(err error) bool {
	return errors.As(err, &ErrMkdir{}) || errors.As(err, &ErrWriteFile{})
}
