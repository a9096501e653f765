package downloader

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

type fakeTransport struct {
	fetchCalls  int
	forgetCalls int
	fetch       func(call int) ([]byte, error)
}

func (tr *fakeTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	tr.fetchCalls++
	return tr.fetch(tr.fetchCalls)
}

func (tr *fakeTransport) Forget(url string) {
	tr.forgetCalls++
}

func testCtx() context.Context {
	return logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
}

func testImage(t *testing.T, storageRoot string) firmware.Image {
	image, err := firmware.NewImage(
		"gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin",
		firmware.ReleaseChannelStable,
		"http://firmware.example.org",
		storageRoot,
	)
	require.NoError(t, err)
	return image
}

func sha512Hex(b []byte) string {
	sum := sha512.Sum512(b)
	return hex.EncodeToString(sum[:])
}

func TestDownloadFirstAttempt(t *testing.T) {
	payload := []byte("the firmware image")
	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return payload, nil
	}}
	image := testImage(t, t.TempDir())

	result, err := New(tr).Download(testCtx(), image, sha512Hex(payload), 3)
	require.NoError(t, err)
	require.True(t, result.Verified)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, firmware.NewImageIDFromImage(payload), result.ImageID)
	require.Equal(t, 1, tr.fetchCalls)

	stored, err := os.ReadFile(image.LocalPath)
	require.NoError(t, err)
	require.Equal(t, payload, stored)
}

func TestDownloadSha256Manifest(t *testing.T) {
	payload := []byte("older mirror, shorter digest")
	sum := sha256.Sum256(payload)
	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return payload, nil
	}}

	result, err := New(tr).Download(testCtx(), testImage(t, t.TempDir()), hex.EncodeToString(sum[:]), 3)
	require.NoError(t, err)
	require.True(t, result.Verified)
}

func TestDownloadExhaustsAttemptsOnTransportFailure(t *testing.T) {
	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return nil, errors.New("connection refused")
	}}

	result, err := New(tr).Download(testCtx(), testImage(t, t.TempDir()), sha512Hex(nil), 3)
	require.NoError(t, err)
	require.False(t, result.Verified)
	require.Equal(t, 3, result.Attempts)
	require.Equal(t, 3, tr.fetchCalls)
	require.True(t, result.ImageID.IsZero())
}

func TestDownloadRetriesAfterHashMismatch(t *testing.T) {
	good := []byte("good content")
	tr := &fakeTransport{fetch: func(call int) ([]byte, error) {
		if call == 1 {
			return []byte("truncated cont"), nil
		}
		return good, nil
	}}
	image := testImage(t, t.TempDir())

	result, err := New(tr).Download(testCtx(), image, sha512Hex(good), 3)
	require.NoError(t, err)
	require.True(t, result.Verified)
	require.Equal(t, 2, result.Attempts)
	// the mismatching attempt must drop the transport cache before retrying
	require.Equal(t, 1, tr.forgetCalls)

	stored, err := os.ReadFile(image.LocalPath)
	require.NoError(t, err)
	require.Equal(t, good, stored)
}

func TestDownloadDefaultAttempts(t *testing.T) {
	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return nil, errors.New("unreachable")
	}}

	result, err := New(tr).Download(testCtx(), testImage(t, t.TempDir()), sha512Hex(nil), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxAttempts, result.Attempts)
}

func TestDownloadUnknownDigestWidth(t *testing.T) {
	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return []byte("content"), nil
	}}

	result, err := New(tr).Download(testCtx(), testImage(t, t.TempDir()), "abc123hash", 3)
	require.NoError(t, err)
	require.False(t, result.Verified)
	require.Equal(t, 3, result.Attempts)
}

func TestDownloadMkdirFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	// occupy the channel path with a file so MkdirAll cannot succeed
	require.NoError(t, os.WriteFile(filepath.Join(root, "stable"), nil, 0o644))

	tr := &fakeTransport{fetch: func(int) ([]byte, error) {
		return []byte("content"), nil
	}}

	result, err := New(tr).Download(testCtx(), testImage(t, root), sha512Hex([]byte("content")), 3)
	require.Error(t, err)
	require.True(t, errors.As(err, &ErrMkdir{}))
	require.False(t, result.Verified)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, 0, tr.fetchCalls)
}
