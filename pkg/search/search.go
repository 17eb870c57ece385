package search

import (
	"sort"
	"strings"
	"time"

	"github.com/go-go-golems/dbchat/pkg/engine"
)

// Weights are the relevance scores per matching slot. The exact values are
// heuristic; only their relative ordering matters (query text above summary
// above raw text above insights), so they stay configurable.
type Weights struct {
	RawText    int
	QueryText  int
	Summary    int
	Insights   int
	ExactBonus int
}

func DefaultWeights() Weights {
	return Weights{
		RawText:    3,
		QueryText:  5,
		Summary:    4,
		Insights:   2,
		ExactBonus: 10,
	}
}

// Match is one ranked search hit.
type Match struct {
	Entry engine.ConversationEntry
	Score int
}

// Search runs the filter chain over a read-only snapshot of entries and ranks
// the survivors. It returns nil immediately when no filter is active, so the
// default unfiltered view costs nothing. Entries are never mutated.
func Search(entries []engine.ConversationEntry, f Filters, w Weights) []Match {
	return searchAt(entries, f, w, time.Now())
}

func searchAt(entries []engine.ConversationEntry, f Filters, w Weights, now time.Time) []Match {
	if !f.Active() {
		return nil
	}

	query := strings.ToLower(strings.TrimSpace(f.QueryText))

	var matches []Match
	for _, entry := range entries {
		if !f.inDateRange(entry.CreatedAt, now) {
			continue
		}
		if !matchesType(entry, f.EntryType) {
			continue
		}
		score := 0
		if query != "" {
			score = scoreEntry(entry, query, w)
			if score == 0 {
				continue
			}
		}
		matches = append(matches, Match{Entry: entry, Score: score})
	}

	// Descending by score; ties keep original entry order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func matchesType(entry engine.ConversationEntry, t EntryType) bool {
	switch t {
	case "", EntryTypeAll:
		return true
	case EntryTypeUser:
		return entry.Role == engine.RoleUser
	case EntryTypeAgent:
		return entry.Role == engine.RoleAgent
	case EntryTypeHasSQL:
		return entry.Structured.QueryText != ""
	case EntryTypeTasks:
		return len(entry.Tasks) > 0
	default:
		return true
	}
}

// scoreEntry sums the slot weights for every slot containing the query.
// SQL matches rank above the rest: a matching query text is typically what
// the user is hunting for.
func scoreEntry(entry engine.ConversationEntry, query string, w Weights) int {
	score := 0
	raw := strings.ToLower(entry.RawText)
	sql := strings.ToLower(entry.Structured.QueryText)

	if strings.Contains(raw, query) {
		score += w.RawText
	}
	if sql != "" && strings.Contains(sql, query) {
		score += w.QueryText
	}
	if s := strings.ToLower(entry.Structured.Summary); s != "" && strings.Contains(s, query) {
		score += w.Summary
	}
	for _, insight := range entry.Structured.Insights {
		if strings.Contains(strings.ToLower(insight), query) {
			score += w.Insights
			break
		}
	}
	if raw == query || (sql != "" && sql == query) {
		score += w.ExactBonus
	}
	return score
}
