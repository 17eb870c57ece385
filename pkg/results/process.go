package results

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// NextSortDirection cycles ascending, descending, unsorted. Toggling the same
// column walks through the cycle; switching columns restarts at ascending.
func NextSortDirection(cur SortDirection) SortDirection {
	switch cur {
	case SortAsc:
		return SortDesc
	case SortDesc:
		return SortNone
	default:
		return SortAsc
	}
}

const DefaultPageSize = 25

// Params drives the processing pipeline. Zero values mean "off": empty Query
// skips search, SortNone skips sorting, Page 0 is treated as page 1.
type Params struct {
	Query         string
	SortColumn    string
	SortDirection SortDirection
	Page          int
	PageSize      int
	HiddenColumns []string
}

// Processed is the derived view over a table after the pipeline ran. Rows is
// the full post-search post-sort row set (what export operates on); PageRows
// is the slice for the current page.
type Processed struct {
	Columns        []string
	VisibleColumns []string
	Rows           []map[string]any
	PageRows       []map[string]any
	Page           int
	PageCount      int
	TotalRows      int
}

// Process applies search, sort and pagination in that fixed order. The input
// table is never mutated.
func Process(t *QueryResultTable, p Params) Processed {
	if t == nil {
		return Processed{Page: 1, PageCount: 1}
	}

	rows := SearchRows(t.Rows, t.Columns, p.Query)
	rows = SortRows(rows, p.SortColumn, p.SortDirection)
	pageRows, page, pageCount := Paginate(rows, p.Page, p.PageSize)

	return Processed{
		Columns:        t.Columns,
		VisibleColumns: visibleColumns(t.Columns, p.HiddenColumns),
		Rows:           rows,
		PageRows:       pageRows,
		Page:           page,
		PageCount:      pageCount,
		TotalRows:      len(rows),
	}
}

// SearchRows keeps rows where any cell's string form contains the query,
// case-insensitively. An empty query keeps everything.
func SearchRows(rows []map[string]any, columns []string, query string) []map[string]any {
	if strings.TrimSpace(query) == "" {
		return append([]map[string]any(nil), rows...)
	}
	needle := strings.ToLower(query)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(CellString(row[col])), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// SortRows stable-sorts by one column. When both values parse as numbers they
// compare numerically, otherwise as strings; ties keep their prior order.
func SortRows(rows []map[string]any, column string, dir SortDirection) []map[string]any {
	out := append([]map[string]any(nil), rows...)
	if column == "" || dir == SortNone {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a := CellString(out[i][column])
		b := CellString(out[j][column])
		less := compareCells(a, b)
		if dir == SortDesc {
			return compareCells(b, a)
		}
		return less
	})
	return out
}

func compareCells(a, b string) bool {
	af, aErr := strconv.ParseFloat(a, 64)
	bf, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		return af < bf
	}
	return a < b
}

// Paginate slices rows into 1-indexed pages; an out-of-range page clamps to
// the last valid page.
func Paginate(rows []map[string]any, page, pageSize int) ([]map[string]any, int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageCount := (len(rows) + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return nil, page, pageCount
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], page, pageCount
}

func visibleColumns(columns, hidden []string) []string {
	if len(hidden) == 0 {
		return append([]string(nil), columns...)
	}
	hide := map[string]bool{}
	for _, h := range hidden {
		hide[h] = true
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !hide[c] {
			out = append(out, c)
		}
	}
	return out
}

// CellString renders a cell for matching, comparison and export. Nil cells
// become the empty string; JSON numbers print without a trailing ".0".
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
