package results

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTable() *QueryResultTable {
	return &QueryResultTable{
		Columns: []string{"id", "name", "amount"},
		Rows: []map[string]any{
			{"id": float64(1), "name": "Widget", "amount": float64(100)},
			{"id": float64(2), "name": "Gadget", "amount": float64(20)},
			{"id": float64(3), "name": "widget pro", "amount": float64(9)},
			{"id": float64(4), "name": "Doohickey", "amount": nil},
		},
		RowCount: 4,
	}
}

func TestSearchRowsCaseInsensitive(t *testing.T) {
	table := sampleTable()
	rows := SearchRows(table.Rows, table.Columns, "WIDGET")
	require.Len(t, rows, 2)

	rows = SearchRows(table.Rows, table.Columns, "")
	require.Len(t, rows, 4)
}

func TestSearchRowsMatchesNumericCells(t *testing.T) {
	table := sampleTable()
	rows := SearchRows(table.Rows, table.Columns, "100")
	require.Len(t, rows, 1)
	require.Equal(t, "Widget", rows[0]["name"])
}

func TestSortRowsNumeric(t *testing.T) {
	table := sampleTable()
	rows := SortRows(table.Rows, "amount", SortAsc)

	// nil renders empty which is not numeric, so it sorts as a string before
	// the numeric comparisons kick in pairwise; the numeric rows order 9 < 20 < 100.
	var amounts []string
	for _, r := range rows {
		amounts = append(amounts, CellString(r["amount"]))
	}
	require.Equal(t, []string{"", "9", "20", "100"}, amounts)
}

func TestSortRowsDescending(t *testing.T) {
	table := sampleTable()
	rows := SortRows(table.Rows, "id", SortDesc)
	require.Equal(t, float64(4), rows[0]["id"])
	require.Equal(t, float64(1), rows[3]["id"])
}

func TestSortRowsStableOnTies(t *testing.T) {
	rows := []map[string]any{
		{"k": "same", "ord": 1},
		{"k": "same", "ord": 2},
		{"k": "same", "ord": 3},
	}
	sorted := SortRows(rows, "k", SortAsc)
	require.Equal(t, 1, sorted[0]["ord"])
	require.Equal(t, 2, sorted[1]["ord"])
	require.Equal(t, 3, sorted[2]["ord"])
}

func TestSortRowsNoneKeepsOrder(t *testing.T) {
	table := sampleTable()
	rows := SortRows(table.Rows, "id", SortNone)
	require.Equal(t, table.Rows, rows)
}

func TestNextSortDirectionCycle(t *testing.T) {
	require.Equal(t, SortAsc, NextSortDirection(SortNone))
	require.Equal(t, SortDesc, NextSortDirection(SortAsc))
	require.Equal(t, SortNone, NextSortDirection(SortDesc))
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	table := sampleTable()

	rows, page, pageCount := Paginate(table.Rows, 99, 3)
	require.Equal(t, 2, pageCount)
	require.Equal(t, 2, page)
	require.Len(t, rows, 1)

	rows, page, _ = Paginate(table.Rows, 0, 3)
	require.Equal(t, 1, page)
	require.Len(t, rows, 3)
}

func TestPaginateEmptyRows(t *testing.T) {
	rows, page, pageCount := Paginate(nil, 1, 10)
	require.Empty(t, rows)
	require.Equal(t, 1, page)
	require.Equal(t, 1, pageCount)
}

func TestProcessPipeline(t *testing.T) {
	table := sampleTable()
	processed := Process(table, Params{
		Query:         "widget",
		SortColumn:    "amount",
		SortDirection: SortDesc,
		Page:          1,
		PageSize:      1,
		HiddenColumns: []string{"id"},
	})

	require.Equal(t, 2, processed.TotalRows)
	require.Equal(t, 2, processed.PageCount)
	require.Len(t, processed.PageRows, 1)
	require.Equal(t, "Widget", processed.PageRows[0]["name"])
	require.Equal(t, []string{"name", "amount"}, processed.VisibleColumns)
	// Export row set is post-search post-sort, pre-pagination.
	require.Len(t, processed.Rows, 2)

	// The input table is untouched.
	require.Len(t, table.Rows, 4)
	require.Equal(t, float64(1), table.Rows[0]["id"])
}

func TestProcessNilTable(t *testing.T) {
	processed := Process(nil, Params{})
	require.Equal(t, 1, processed.Page)
	require.Equal(t, 1, processed.PageCount)
	require.Empty(t, processed.Rows)
}

func TestCellString(t *testing.T) {
	require.Equal(t, "", CellString(nil))
	require.Equal(t, "text", CellString("text"))
	require.Equal(t, "1", CellString(float64(1)))
	require.Equal(t, "1.5", CellString(float64(1.5)))
	require.Equal(t, "true", CellString(true))
	require.Equal(t, `["a","b"]`, CellString([]any{"a", "b"}))
}
