package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL     = "http://firmware.example.org"
	testStorageRoot = "/var/lib/fwds"
)

func buildManifest(dataLines ...string) []byte {
	lines := []string{
		"BRANCH=stable",
		"DATE=2018-01-27 16:27:23+01:00",
		"PRIORITY=7",
		"---",
	}
	lines = append(lines, dataLines...)
	lines = append(lines,
		"---",
		"y1Yl0aopZ59HU1tBhf9AAJCDYzDbLBMkZ0V3KLBlpEampha2F0emVucw==",
		"tZKLBlpE1hbmlmZXN0IGZvciB0aGUgdW5pdCB0ZXN0cwo5HU1tBhf9AA==",
	)
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestParseSingleEntry(t *testing.T) {
	raw := buildManifest(
		"gluon-ffhl-1.2.3-sysupgrade.bin tp-link-tl-wr841n-nd-v9 1.2.3 5570560 abc123hash",
	)

	entries, err := Parse(raw, firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	require.Equal(t, "gluon-ffhl-1.2.3-sysupgrade.bin", entry.Image.Name)
	require.Equal(t, "ffhl", entry.Image.Organization)
	require.Equal(t, "1.2.3", entry.Image.Version)
	require.Equal(t, firmware.ReleaseChannelStable, entry.Image.ReleaseChannel)
	require.Equal(t, "abc123hash", entry.ExpectedHash)
	require.Equal(t, 0, entry.Line)
	require.Equal(t,
		"/var/lib/fwds/stable/sysupgrade/gluon-ffhl-1.2.3-sysupgrade.bin",
		entry.Image.LocalPath,
	)
	require.Equal(t,
		"http://firmware.example.org/stable/sysupgrade/gluon-ffhl-1.2.3-sysupgrade.bin",
		entry.Image.SourceURL,
	)
}

func TestParseKeepsManifestOrder(t *testing.T) {
	raw := buildManifest(
		"gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin m v 1 hash-a",
		"gluon-ffhl-1.2.3-tp-link-tl-wr1043n-nd-v2-sysupgrade.bin m v 2 hash-b",
		"gluon-ffhl-1.2.3-ubiquiti-bullet-m-sysupgrade.bin m v 3 hash-c",
	)

	entries, err := Parse(raw, firmware.ReleaseChannelBeta, testBaseURL, testStorageRoot)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "hash-a", entries[0].ExpectedHash)
	require.Equal(t, "hash-b", entries[1].ExpectedHash)
	require.Equal(t, "hash-c", entries[2].ExpectedHash)
	for i, entry := range entries {
		require.Equal(t, i, entry.Line)
	}
}

// Upstream occasionally appends a date to the version ("0.9.9+2018-01-27");
// the hyphen-positional extraction then truncates the version at the first
// hyphen. That has always been the behavior the storage tree was built with,
// so it is pinned here.
func TestParseVersionWithDateSuffix(t *testing.T) {
	raw := buildManifest(
		"gluon-ffhl-0.9.9+2018-01-27-tp-link-tl-wr841n-nd-v9-sysupgrade.bin m v 4 feedbeef",
	)

	entries, err := Parse(raw, firmware.ReleaseChannelExperimental, testBaseURL, testStorageRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ffhl", entries[0].Image.Organization)
	require.Equal(t, "0.9.9+2018", entries[0].Image.Version)
}

func TestParseSkipsEndOfDataMarker(t *testing.T) {
	raw := buildManifest(
		"gluon-ffhl-1.2.3-a-sysupgrade.bin m v 1 hash-a",
		"---",
		"gluon-ffhl-1.2.3-b-sysupgrade.bin m v 2 hash-b",
	)

	entries, err := Parse(raw, firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 0, entries[0].Line)
	require.Equal(t, 2, entries[1].Line)
}

func TestParseErrors(t *testing.T) {
	t.Run("field_count", func(t *testing.T) {
		raw := buildManifest("gluon-ffhl-1.2.3-sysupgrade.bin 1.2.3 5570560")
		_, err := Parse(raw, firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
		require.Error(t, err)
		require.True(t, errors.As(err, &ErrFieldCount{}))
	})

	t.Run("gluon_marker_missing", func(t *testing.T) {
		raw := buildManifest("lede-ffhl-1.2.3-sysupgrade.bin m v 1 hash")
		_, err := Parse(raw, firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
		require.Error(t, err)
		require.True(t, errors.As(err, &ErrMarkerMissing{}))
	})

	t.Run("sysupgrade_marker_missing", func(t *testing.T) {
		raw := buildManifest("gluon-ffhl-1.2.3-factory.bin m v 1 hash")
		_, err := Parse(raw, firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
		require.Error(t, err)
		require.True(t, errors.As(err, &ErrMarkerMissing{}))
	})
}

func TestParseTooShort(t *testing.T) {
	entries, err := Parse([]byte("BRANCH=stable\n---\n"), firmware.ReleaseChannelStable, testBaseURL, testStorageRoot)
	require.NoError(t, err)
	require.Empty(t, entries)
}
