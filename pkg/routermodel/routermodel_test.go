package routermodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		rawModel string
		name     string
		version  string
	}{
		{"TP-LINK TL-WR841N/ND v9", "tp-link-tl-wr841n-nd", "v9"},
		{"TP-LINK TL-WR1043N/ND v2", "tp-link-tl-wr1043n-nd", "v2"},
		{"Ubiquiti Nanostation M XW v2", "ubiquiti-nanostation-m-xw", "v2"},
		// the split happens at the last " v" occurrence
		{"Vocore v1", "vocore", "v1"},
	} {
		t.Run(tc.rawModel, func(t *testing.T) {
			name, version, err := Parse(tc.rawModel)
			require.NoError(t, err)
			require.Equal(t, tc.name, name)
			require.Equal(t, tc.version, version)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, _, err := Parse("TP-LINK TL-WR841N/ND")
	require.Error(t, err)
	require.True(t, errors.As(err, &ErrMalformedIdentifier{}))
}

// Re-parsing "<name> <version>" of an already normalized pair must reproduce
// the same matching key, otherwise catalog lookups would depend on how often
// a model string passed through normalization.
func TestParseIdempotentKey(t *testing.T) {
	for _, rawModel := range []string{
		"TP-LINK TL-WR841N/ND v9",
		"D-Link DIR-825 Rev B1 v1",
		"ALFA Network Hornet-UB v2",
	} {
		t.Run(rawModel, func(t *testing.T) {
			name, version, err := Parse(rawModel)
			require.NoError(t, err)

			name2, version2, err := Parse(name + " " + version)
			require.NoError(t, err)
			require.Equal(t, MatchKey(name, version), MatchKey(name2, version2))
		})
	}
}
