package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/dbchat/pkg/engine"
	"github.com/go-go-golems/dbchat/pkg/extract"
)

var testNow = time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC)

func userEntry(text string, age time.Duration) engine.ConversationEntry {
	e := engine.NewUserEntry(text)
	e.CreatedAt = testNow.Add(-age)
	return e
}

func agentEntry(text string, structured extract.StructuredContent, age time.Duration) engine.ConversationEntry {
	e := engine.NewEntry(engine.RoleAgent)
	e.RawText = text
	e.DisplayText = text
	e.Structured = structured
	e.IsStreaming = false
	e.CreatedAt = testNow.Add(-age)
	return e
}

func TestSearchInactiveFiltersShortCircuit(t *testing.T) {
	entries := []engine.ConversationEntry{userEntry("Show sales", 0)}

	require.Nil(t, Search(entries, Filters{}, DefaultWeights()))
	require.Nil(t, Search(entries, Filters{DateRange: DateRangeAll, EntryType: EntryTypeAll}, DefaultWeights()))
}

func TestSearchRanksSQLAboveRawText(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("Show sales", time.Hour),
		agentEntry("SELECT * FROM sales", extract.StructuredContent{QueryText: "SELECT * FROM sales"}, time.Hour),
	}

	matches := searchAt(entries, Filters{QueryText: "sales"}, DefaultWeights(), testNow)
	require.Len(t, matches, 2)
	require.Equal(t, engine.RoleAgent, matches[0].Entry.Role)
	require.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSearchExactMatchBonus(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("sales", time.Hour),
		userEntry("sales report for the quarter", time.Hour),
	}

	matches := searchAt(entries, Filters{QueryText: "sales"}, DefaultWeights(), testNow)
	require.Len(t, matches, 2)
	require.Equal(t, "sales", matches[0].Entry.RawText)
	require.Equal(t, DefaultWeights().RawText+DefaultWeights().ExactBonus, matches[0].Score)
	require.Equal(t, DefaultWeights().RawText, matches[1].Score)
}

func TestSearchTypeFilters(t *testing.T) {
	withSQL := agentEntry("done", extract.StructuredContent{QueryText: "SELECT 1"}, time.Hour)
	withTasks := agentEntry("done", extract.StructuredContent{}, time.Hour)
	withTasks.Tasks = []string{"load sales"}
	entries := []engine.ConversationEntry{
		userEntry("question", time.Hour),
		withSQL,
		withTasks,
	}

	matches := searchAt(entries, Filters{EntryType: EntryTypeUser}, DefaultWeights(), testNow)
	require.Len(t, matches, 1)
	require.Equal(t, engine.RoleUser, matches[0].Entry.Role)

	matches = searchAt(entries, Filters{EntryType: EntryTypeHasSQL}, DefaultWeights(), testNow)
	require.Len(t, matches, 1)
	require.Equal(t, "SELECT 1", matches[0].Entry.Structured.QueryText)

	matches = searchAt(entries, Filters{EntryType: EntryTypeTasks}, DefaultWeights(), testNow)
	require.Len(t, matches, 1)
	require.Equal(t, []string{"load sales"}, matches[0].Entry.Tasks)
}

func TestSearchDateRanges(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("today's question", 2*time.Hour),
		userEntry("last week's question", 5*24*time.Hour),
		userEntry("old question", 60*24*time.Hour),
	}

	matches := searchAt(entries, Filters{DateRange: DateRangeToday}, DefaultWeights(), testNow)
	require.Len(t, matches, 1)

	matches = searchAt(entries, Filters{DateRange: DateRangeWeek}, DefaultWeights(), testNow)
	require.Len(t, matches, 2)

	matches = searchAt(entries, Filters{DateRange: DateRangeMonth}, DefaultWeights(), testNow)
	require.Len(t, matches, 2)

	matches = searchAt(entries, Filters{
		DateRange:   DateRangeCustom,
		CustomStart: testNow.Add(-10 * 24 * time.Hour),
		CustomEnd:   testNow,
	}, DefaultWeights(), testNow)
	require.Len(t, matches, 2)
}

func TestSearchMonotonicity(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("sales question", time.Hour),
		agentEntry("sales answer", extract.StructuredContent{QueryText: "SELECT * FROM sales"}, time.Hour),
		userEntry("unrelated", time.Hour),
	}

	loose := searchAt(entries, Filters{QueryText: "sales"}, DefaultWeights(), testNow)
	tight := searchAt(entries, Filters{QueryText: "sales", EntryType: EntryTypeHasSQL}, DefaultWeights(), testNow)
	require.LessOrEqual(t, len(tight), len(loose))
}

func TestSearchStableTieOrder(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("sales one", time.Hour),
		userEntry("sales two", time.Hour),
		userEntry("sales three", time.Hour),
	}

	matches := searchAt(entries, Filters{QueryText: "sales"}, DefaultWeights(), testNow)
	require.Len(t, matches, 3)
	require.Equal(t, "sales one", matches[0].Entry.RawText)
	require.Equal(t, "sales two", matches[1].Entry.RawText)
	require.Equal(t, "sales three", matches[2].Entry.RawText)
}

func TestSearchEmptyTextQueryIncludesFilteredEntries(t *testing.T) {
	entries := []engine.ConversationEntry{
		userEntry("anything at all", time.Hour),
	}

	matches := searchAt(entries, Filters{DateRange: DateRangeToday}, DefaultWeights(), testNow)
	require.Len(t, matches, 1)
	require.Zero(t, matches[0].Score)
}

func TestHighlightSpans(t *testing.T) {
	spans := HighlightSpans("Sales are up. SALES!", "sales")
	require.Equal(t, []Span{
		{Text: "Sales", Match: true},
		{Text: " are up. "},
		{Text: "SALES", Match: true},
		{Text: "!"},
	}, spans)
}

func TestHighlightSpansEscapesMetacharacters(t *testing.T) {
	spans := HighlightSpans("total (sum) = 10", "(sum)")
	require.Equal(t, []Span{
		{Text: "total "},
		{Text: "(sum)", Match: true},
		{Text: " = 10"},
	}, spans)
}

func TestHighlightSpansNoQuery(t *testing.T) {
	spans := HighlightSpans("text", "")
	require.Equal(t, []Span{{Text: "text"}}, spans)
	require.Nil(t, HighlightSpans("", "q"))
}
