// Package results normalizes raw tool output into a uniform column/row table
// and provides pure client-side post-processing over it: substring search,
// stable sort, pagination, and CSV/JSON export.
package results

import (
	"encoding/json"
	"sort"
)

// QueryResultTable is the normalized tabular payload. Immutable after
// creation; post-processing returns new derived values.
type QueryResultTable struct {
	Columns       []string
	Rows          []map[string]any
	RowCount      int
	ExecutionTime *float64
}

// Normalize recognizes a tabular payload inside a tool output. Two shapes are
// accepted, checked in this order:
//
//  1. an object with a "results" list of records, plus optional "columns",
//     "row_count" and "execution_time" fields
//  2. a bare list of uniform records
//
// Column order comes from the explicit "columns" field when present, otherwise
// from the sorted keys of the first record. Any other shape is not a table and
// yields (nil, false); callers must treat absence as "not tabular", not as an
// error.
func Normalize(output any) (*QueryResultTable, bool) {
	output = decodeIfText(output)

	if obj, ok := output.(map[string]any); ok {
		return normalizeResultsObject(obj)
	}
	if rows, ok := recordList(output); ok {
		return &QueryResultTable{
			Columns:  columnsFromRecords(nil, rows),
			Rows:     rows,
			RowCount: len(rows),
		}, true
	}
	return nil, false
}

// decodeIfText unwraps outputs delivered as raw JSON text.
func decodeIfText(output any) any {
	var b []byte
	switch v := output.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	case json.RawMessage:
		b = v
	default:
		return output
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return output
	}
	return decoded
}

func normalizeResultsObject(obj map[string]any) (*QueryResultTable, bool) {
	raw, ok := obj["results"]
	if !ok {
		return nil, false
	}
	rows, ok := recordList(raw)
	if !ok {
		if list, isList := raw.([]any); !isList || len(list) != 0 {
			return nil, false
		}
		rows = nil
	}

	t := &QueryResultTable{
		Columns:  columnsFromRecords(explicitColumns(obj["columns"]), rows),
		Rows:     rows,
		RowCount: len(rows),
	}
	if n, ok := obj["row_count"].(float64); ok {
		t.RowCount = int(n)
	}
	if et, ok := obj["execution_time"].(float64); ok {
		t.ExecutionTime = &et
	}
	return t, true
}

// recordList accepts a non-empty list whose elements are all records.
func recordList(v any) ([]map[string]any, bool) {
	if rows, ok := v.([]map[string]any); ok && len(rows) > 0 {
		return rows, true
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, rec)
	}
	return rows, true
}

func explicitColumns(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if cols, ok := v.([]string); ok {
			return cols
		}
		return nil
	}
	var cols []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			cols = append(cols, s)
		}
	}
	return cols
}

// columnsFromRecords dedupes the explicit columns, falling back to the sorted
// keys of the first record so column order stays deterministic.
func columnsFromRecords(explicit []string, rows []map[string]any) []string {
	var cols []string
	if len(explicit) > 0 {
		cols = explicit
	} else if len(rows) > 0 {
		for k := range rows[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
