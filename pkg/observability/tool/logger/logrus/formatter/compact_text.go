// Package formatter provides logrus formatters for human-oriented output.
package formatter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CompactText is a logrus formatter which prints laconic lines, like
//
//	[12:34 W main.go:56] my message
type CompactText struct {
	TimestampFormat string
	FieldAllowList  []string
}

// Format implements logrus.Formatter.
func (f *CompactText) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := time.RFC3339
	if f.TimestampFormat != "" {
		timestamp = f.TimestampFormat
	}

	var str strings.Builder
	str.WriteString(fmt.Sprintf("[%s %c",
		entry.Time.Format(timestamp),
		levelSymbol(entry.Level),
	))
	if entry.Caller != nil {
		str.WriteString(fmt.Sprintf(" %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line))
	}
	str.WriteString(fmt.Sprintf("] %s", entry.Message))

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if f.allowed(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		str.WriteString(fmt.Sprintf("\t%s=%v", key, entry.Data[key]))
	}

	str.WriteByte('\n')
	return []byte(str.String()), nil
}

func (f *CompactText) allowed(key string) bool {
	if f.FieldAllowList == nil {
		return true
	}
	for _, allowedKey := range f.FieldAllowList {
		if key == allowedKey {
			return true
		}
	}
	return false
}

func levelSymbol(level logrus.Level) byte {
	return strings.ToUpper(level.String())[0]
}
