// Package search provides filtered, ranked retrospective lookup over reduced
// conversation entries, plus match-span highlighting for display.
package search

import (
	"strings"
	"time"
)

type DateRange string

const (
	DateRangeAll    DateRange = "all"
	DateRangeToday  DateRange = "today"
	DateRangeWeek   DateRange = "week"
	DateRangeMonth  DateRange = "month"
	DateRangeCustom DateRange = "custom"
)

type EntryType string

const (
	EntryTypeAll    EntryType = "all"
	EntryTypeUser   EntryType = "user"
	EntryTypeAgent  EntryType = "agent"
	EntryTypeHasSQL EntryType = "has_sql"
	EntryTypeTasks  EntryType = "has_tasks"
)

// Filters is a plain value object describing one search invocation.
type Filters struct {
	QueryText   string
	DateRange   DateRange
	EntryType   EntryType
	CustomStart time.Time
	CustomEnd   time.Time
}

// Active reports whether any filter deviates from the default unfiltered
// view. Search short-circuits to an empty result when nothing is active.
func (f Filters) Active() bool {
	if strings.TrimSpace(f.QueryText) != "" {
		return true
	}
	if f.DateRange != "" && f.DateRange != DateRangeAll {
		return true
	}
	if f.EntryType != "" && f.EntryType != EntryTypeAll {
		return true
	}
	return false
}

// inDateRange checks an entry timestamp against the filter's window relative
// to now. Today uses inclusive calendar-day boundaries; week and month are
// rolling windows; custom uses the explicit inclusive bounds.
func (f Filters) inDateRange(created, now time.Time) bool {
	switch f.DateRange {
	case "", DateRangeAll:
		return true
	case DateRangeToday:
		y1, m1, d1 := created.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateRangeWeek:
		return !created.Before(now.AddDate(0, 0, -7))
	case DateRangeMonth:
		return !created.Before(now.AddDate(0, -1, 0))
	case DateRangeCustom:
		if !f.CustomStart.IsZero() && created.Before(f.CustomStart) {
			return false
		}
		if !f.CustomEnd.IsZero() && created.After(f.CustomEnd) {
			return false
		}
		return true
	default:
		return true
	}
}
