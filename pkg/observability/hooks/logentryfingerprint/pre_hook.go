// Package logentryfingerprint attaches a stable fingerprint to every log
// entry, identifying the log statement the entry was issued from.
package logentryfingerprint

import (
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/types"
)

// FieldKey is the key of the injected field (see also FieldValue).
const FieldKey = "fwds/logentryfingerprint"

// FieldValue is the type of the injected field: the hex form of the
// fingerprint.
type FieldValue string

// PreHook hashes the static parts of a log entry (level, format string,
// field keys, argument types) into a fingerprint that is stable across
// invocations of the same log statement, so entries can be grouped and
// counted by origin the way Sentry groups events:
//
//	https://docs.sentry.io/product/sentry-basics/grouping-and-fingerprints/
//
// Variable parts (trace IDs, format arguments) do not contribute. To change
// the algorithm, install a different hook.
type PreHook struct{}

var _ logger.PreHook = PreHook{}

func fingerprint(level logger.Level, static string, fields field.AbstractFields, args []any) types.PreHookResult {
	h := fnv.New64a() // grouping key, collision resistance is not a concern
	_, _ = fmt.Fprintf(h, "%s\x00%s", level, static)
	for _, arg := range args {
		_, _ = h.Write([]byte{0})
		if t := reflect.TypeOf(arg); t != nil {
			_, _ = h.Write([]byte(t.Name()))
		}
	}
	if fields != nil {
		fields.ForEachField(func(f *field.Field) bool {
			_, _ = h.Write([]byte{0})
			_, _ = h.Write([]byte(f.Key))
			return true
		})
	}

	return types.PreHookResult{
		ExtraFields: &field.Field{
			Key:   FieldKey,
			Value: FieldValue(fmt.Sprintf("%016x", h.Sum64())),
		},
	}
}

// ProcessInput implements logger.PreHook.
func (PreHook) ProcessInput(_ belt.TraceIDs, level logger.Level, args ...any) types.PreHookResult {
	return fingerprint(level, "", nil, args)
}

// ProcessInputf implements logger.PreHook.
func (PreHook) ProcessInputf(_ belt.TraceIDs, level logger.Level, format string, _ ...any) types.PreHookResult {
	return fingerprint(level, format, nil, nil)
}

// ProcessInputFields implements logger.PreHook.
func (PreHook) ProcessInputFields(_ belt.TraceIDs, level logger.Level, message string, fields field.AbstractFields) types.PreHookResult {
	return fingerprint(level, message, fields, nil)
}
