// Package routermodel converts free-form router model strings, as reported by
// the devices themselves (e.g. "TP-LINK TL-WR841N/ND v9"), into the canonical
// matching key used by firmware image names.
package routermodel

import (
	"fmt"
	"regexp"
	"strings"
)

const versionSeparator = " v"

var nonWord = regexp.MustCompile(`\W`)

// ErrMalformedIdentifier implements "error", for the description see Error.
type ErrMalformedIdentifier struct {
	Model string
}

func (err ErrMalformedIdentifier) Error() string {
	return fmt.Sprintf("router model '%s' has no '%s<version>' suffix", err.Model, versionSeparator)
}

// Parse normalizes a free-form router model string into a (name, version)
// pair:
//
//	"TP-LINK TL-WR841N/ND v9" -> ("tp-link-tl-wr841n-nd", "v9")
//
// The input is split on the last occurrence of " v"; the name part is
// lower-cased and every character that is not alphanumeric or underscore is
// replaced with a hyphen. Returns ErrMalformedIdentifier if no " v" separator
// is present.
func Parse(rawModel string) (name string, version string, err error) {
	idx := strings.LastIndex(rawModel, versionSeparator)
	if idx < 0 {
		return "", "", ErrMalformedIdentifier{Model: rawModel}
	}

	name = nonWord.ReplaceAllString(strings.ToLower(rawModel[:idx]), "-")
	version = "v" + rawModel[idx+len(versionSeparator):]
	return name, version, nil
}

// MatchKey composes the substring key a normalized model is looked up by:
// canonical image names always contain "<name>-<version>" verbatim.
func MatchKey(name string, version string) string {
	return name + "-" + version
}
