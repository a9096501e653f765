package journal

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/stoewer/go-strcase"
)

// valuesAndColumns decomposes a Record-like struct into parallel column-name
// and value slices for building INSERT statements. The column name comes from
// the `db` tag when present and falls back to the snake_case of the field
// name; a tag of "-" excludes the field. shouldSkip (optional) drops fields
// by name, e.g. auto-increment keys.
func valuesAndColumns(obj any, shouldSkip func(fieldName string) bool) ([]any, []string, error) {
	e := reflect.Indirect(reflect.ValueOf(obj))
	if e.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("expected a struct, received %T", obj)
	}
	t := e.Type()

	var values []any
	var columns []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			// not exported
			continue
		}
		if shouldSkip != nil && shouldSkip(f.Name) {
			continue
		}

		columnName := columnName(f)
		if columnName == "-" {
			continue
		}

		values = append(values, e.Field(i).Interface())
		columns = append(columns, columnName)
	}
	return values, columns, nil
}

func columnName(f reflect.StructField) string {
	tag, found := f.Tag.Lookup("db")
	if !found {
		return strcase.SnakeCase(f.Name)
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		return tag[:idx]
	}
	return tag
}

func constructColumns(columns []string) string {
	return "`" + strings.Join(columns, "`,`") + "`"
}

func constructPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
