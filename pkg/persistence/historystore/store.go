// Package historystore persists reduced conversation entries so the search
// index and CLI can operate on past turns. Two implementations share the same
// semantics: SQLite for durable history and an in-memory store for tests and
// ephemeral sessions.
package historystore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/go-go-golems/dbchat/pkg/engine"
	"github.com/go-go-golems/dbchat/pkg/events"
	"github.com/go-go-golems/dbchat/pkg/extract"
)

// EntryRecord is the stored form of one conversation turn. Events are kept as
// the serialized envelope list so the full entry can be re-derived by
// replaying them through the reducer.
type EntryRecord struct {
	EntryID        string
	Role           string
	RawText        string
	DisplayText    string
	StructuredJSON []byte
	EventsJSON     []byte
	IsStreaming    bool
	CreatedAtMs    int64
	LastActivityMs int64
}

type EntryStore interface {
	UpsertEntry(ctx context.Context, record EntryRecord) error
	GetEntry(ctx context.Context, entryID string) (EntryRecord, bool, error)
	ListEntries(ctx context.Context, limit int, sinceMs int64) ([]EntryRecord, error)
	Close() error
}

// RecordFromEntry converts a reduced entry into its stored form.
func RecordFromEntry(entry engine.ConversationEntry) (EntryRecord, error) {
	if entry.ID == "" {
		return EntryRecord{}, errors.New("history store: entry has no id")
	}
	eventsJSON, err := events.MarshalEvents(entry.Events)
	if err != nil {
		return EntryRecord{}, errors.Wrap(err, "history store: marshal events")
	}
	structuredJSON, err := json.Marshal(entry.Structured)
	if err != nil {
		return EntryRecord{}, errors.Wrap(err, "history store: marshal structured content")
	}

	lastActivity := entry.CreatedAt
	for _, ev := range entry.Events {
		if ts := ev.Metadata().Timestamp; ts.After(lastActivity) {
			lastActivity = ts
		}
	}

	return EntryRecord{
		EntryID:        entry.ID,
		Role:           string(entry.Role),
		RawText:        entry.RawText,
		DisplayText:    entry.DisplayText,
		StructuredJSON: structuredJSON,
		EventsJSON:     eventsJSON,
		IsStreaming:    entry.IsStreaming,
		CreatedAtMs:    entry.CreatedAt.UnixMilli(),
		LastActivityMs: lastActivity.UnixMilli(),
	}, nil
}

// Entry rebuilds the full conversation entry by replaying the stored events
// through the reducer; correlation is re-entrant, so this reproduces the same
// derived state the entry had when stored.
func (r EntryRecord) Entry() (engine.ConversationEntry, error) {
	evs, err := events.UnmarshalEvents(r.EventsJSON)
	if err != nil {
		return engine.ConversationEntry{}, errors.Wrap(err, "history store: decode events")
	}

	entry := engine.ConversationEntry{
		ID:          r.EntryID,
		Role:        engine.Role(r.Role),
		IsStreaming: true,
		CreatedAt:   time.UnixMilli(r.CreatedAtMs),
	}
	entry = engine.ReduceAll(entry, evs)

	// User turns carry their text directly rather than via token events.
	if entry.RawText == "" && r.RawText != "" {
		entry.RawText = r.RawText
		entry.DisplayText = r.DisplayText
		if entry.DisplayText == "" {
			entry.DisplayText = r.RawText
		}
	}
	if len(r.StructuredJSON) > 0 {
		var stored extract.StructuredContent
		if err := json.Unmarshal(r.StructuredJSON, &stored); err == nil {
			entry.Structured = extract.Merge(stored, entry.Structured)
		}
	}
	if !r.IsStreaming {
		entry = engine.Cancel(entry)
	}
	return entry, nil
}

// EntriesFromRecords converts a record list, skipping records that fail to
// decode rather than dropping the whole snapshot.
func EntriesFromRecords(records []EntryRecord) []engine.ConversationEntry {
	out := make([]engine.ConversationEntry, 0, len(records))
	for _, r := range records {
		entry, err := r.Entry()
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}
