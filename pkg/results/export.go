package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"

	"github.com/pkg/errors"
)

// ExportCSV renders rows as RFC4180 CSV: a header line with the given columns
// followed by one line per row. Cells containing commas, quotes or newlines
// are quoted with internal quotes doubled; nil cells render empty.
func ExportCSV(columns []string, rows []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, errors.Wrap(err, "results: write csv header")
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = CellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, errors.Wrap(err, "results: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "results: flush csv")
	}
	return buf.Bytes(), nil
}

// ExportJSON renders rows as a compact JSON array of objects, keeping the
// given column order and including only those columns.
func ExportJSON(columns []string, rows []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, errors.Wrap(err, "results: marshal json key")
			}
			val := row[col]
			if val == nil {
				val = ""
			}
			value, err := json.Marshal(val)
			if err != nil {
				return nil, errors.Wrapf(err, "results: marshal json cell %s", col)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
