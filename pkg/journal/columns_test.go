package journal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The column list is the wire format towards an existing table, keep it
// stable.
func TestRecordColumns(t *testing.T) {
	_, columns, err := valuesAndColumns(&Record{}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		"id",
		"image_id",
		"image_name",
		"channel",
		"expected_hash",
		"attempts",
		"verified",
		"event",
		"job_id",
		"ts",
	}, columns)
}

func TestRecordColumnsSkipsPrimaryKey(t *testing.T) {
	_, columns, err := valuesAndColumns(&Record{}, func(fieldName string) bool {
		return fieldName == "ID"
	})
	require.NoError(t, err)
	require.NotContains(t, columns, "id")
}

func TestConstructPlaceholders(t *testing.T) {
	require.Equal(t, "?", constructPlaceholders(1))
	require.Equal(t, "?,?,?", constructPlaceholders(3))
}

func TestConstructColumns(t *testing.T) {
	require.Equal(t, "`image_name`,`ts`", constructColumns([]string{"image_name", "ts"}))
}
