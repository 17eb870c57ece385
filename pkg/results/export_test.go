package results

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportCSVRoundTrip(t *testing.T) {
	columns := []string{"name", "note"}
	rows := []map[string]any{
		{"name": "plain", "note": "nothing special"},
		{"name": "comma, inside", "note": `say "hi"`},
		{"name": "multi\nline", "note": nil},
	}

	out, err := ExportCSV(columns, rows)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(out))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, columns, records[0])
	require.Equal(t, []string{"plain", "nothing special"}, records[1])
	require.Equal(t, []string{"comma, inside", `say "hi"`}, records[2])
	require.Equal(t, []string{"multi\nline", ""}, records[3])
}

func TestExportCSVQuoting(t *testing.T) {
	out, err := ExportCSV([]string{"v"}, []map[string]any{{"v": `a "quoted" value`}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"a ""quoted"" value"`)
}

func TestExportJSONColumnOrderAndVisibility(t *testing.T) {
	columns := []string{"b", "a"}
	rows := []map[string]any{
		{"a": float64(1), "b": "x", "hidden": "never"},
		{"a": nil, "b": "y"},
	}

	out, err := ExportJSON(columns, rows)
	require.NoError(t, err)
	require.Equal(t, `[{"b":"x","a":1},{"b":"y","a":""}]`, string(out))
}

func TestExportJSONEmptyRows(t *testing.T) {
	out, err := ExportJSON([]string{"a"}, nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(out))
}
