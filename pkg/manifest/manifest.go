// Package manifest parses the autoupdater manifests published by gluon
// mirrors. The format is line-oriented and positional; the skip counts and
// field indices below are a compatibility contract with the mirrors, do not
// "fix" them here.
package manifest

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

const (
	// headerLines is the fixed manifest preamble (branch, date, priority,
	// separator), skipped unparsed.
	headerLines = 4

	// footerLines is the fixed manifest trailer (the end-of-data marker
	// plus the signature lines), skipped unparsed.
	footerLines = 3

	// endOfDataMarker separates image lines from the signature trailer.
	endOfDataMarker = "---"

	// Image lines are whitespace-delimited. The file name is the first
	// field and the expected hash the fifth; anything in between (model,
	// version, size) is not needed here, the canonical name already
	// carries it.
	nameField = 0
	hashField = 4
	minFields = hashField + 1
)

// Entry pairs one firmware image with the content hash the manifest promises
// for it. Entries are transient parse output, they are not persisted.
type Entry struct {
	Image firmware.Image

	// ExpectedHash is the hex digest published by the manifest. The digest
	// algorithm is the publisher's choice and treated as opaque here.
	ExpectedHash string

	// Line is the 0-based index of the originating line within the
	// manifest's data section, for diagnostics only.
	Line int
}

// Parse turns raw manifest text into the ordered list of images it announces
// for the given channel. LocalPath and SourceURL of the produced images are
// derived from storageRoot and baseURL using the shared storage layout.
//
// A line that violates the field structure fails the whole parse; the
// end-of-data marker is the only expected skip.
func Parse(
	raw []byte,
	channel firmware.ReleaseChannel,
	baseURL string,
	storageRoot string,
) ([]Entry, error) {
	lines := scanLines(raw)
	if len(lines) < headerLines+footerLines {
		return nil, nil
	}
	body := lines[headerLines : len(lines)-footerLines]

	var entries []Entry
	for idx, line := range body {
		if strings.TrimSpace(line) == endOfDataMarker {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < minFields {
			return nil, ErrFieldCount{Line: idx, Fields: len(fields)}
		}

		name, err := canonicalName(idx, fields[nameField])
		if err != nil {
			return nil, err
		}

		image, err := firmware.NewImage(name, channel, baseURL, storageRoot)
		if err != nil {
			return nil, ErrImageName{Line: idx, Err: err}
		}

		entries = append(entries, Entry{
			Image:        image,
			ExpectedHash: fields[hashField],
			Line:         idx,
		})
	}
	return entries, nil
}

// canonicalName rebuilds the canonical image file name from whatever the
// manifest put into the name field: the part between "gluon" and
// "-sysupgrade" plus the original file extension survive, any decoration
// around them is dropped.
func canonicalName(line int, field string) (string, error) {
	gluonIdx := strings.Index(field, "gluon")
	if gluonIdx < 0 {
		return "", ErrMarkerMissing{Line: line, Name: field, Marker: "gluon"}
	}
	rest := field[gluonIdx+len("gluon"):]

	sysupgradeIdx := strings.Index(rest, "-"+firmware.UpdateSysupgrade)
	if sysupgradeIdx < 0 {
		return "", ErrMarkerMissing{Line: line, Name: field, Marker: "-" + firmware.UpdateSysupgrade}
	}

	extIdx := strings.LastIndex(field, ".")
	if extIdx < 0 {
		return "", ErrMarkerMissing{Line: line, Name: field, Marker: "."}
	}

	return "gluon" + rest[:sysupgradeIdx] + "-" + firmware.UpdateSysupgrade + "." + field[extIdx+1:], nil
}

func scanLines(raw []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
