package historystore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// InMemoryEntryStore mirrors the ordering semantics of the SQLite store so
// callers can swap the two freely.
type InMemoryEntryStore struct {
	mu      sync.Mutex
	entries map[string]EntryRecord
}

var _ EntryStore = &InMemoryEntryStore{}

func NewInMemoryEntryStore() *InMemoryEntryStore {
	return &InMemoryEntryStore{entries: map[string]EntryRecord{}}
}

func (s *InMemoryEntryStore) Close() error { return nil }

func (s *InMemoryEntryStore) UpsertEntry(_ context.Context, record EntryRecord) error {
	if s == nil {
		return errors.New("in-memory entry store: nil store")
	}
	if record.EntryID == "" {
		return errors.New("in-memory entry store: entryID is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[record.EntryID]; ok {
		record = mergeEntryRecord(existing, record)
	}
	s.entries[record.EntryID] = record
	return nil
}

func (s *InMemoryEntryStore) GetEntry(_ context.Context, entryID string) (EntryRecord, bool, error) {
	if s == nil {
		return EntryRecord{}, false, errors.New("in-memory entry store: nil store")
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return EntryRecord{}, false, errors.New("in-memory entry store: entryID is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.entries[entryID]
	if !ok {
		return EntryRecord{}, false, nil
	}
	return record, true, nil
}

func (s *InMemoryEntryStore) ListEntries(_ context.Context, limit int, sinceMs int64) ([]EntryRecord, error) {
	if s == nil {
		return nil, errors.New("in-memory entry store: nil store")
	}
	if limit <= 0 {
		limit = 200
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]EntryRecord, 0, len(s.entries))
	for _, record := range s.entries {
		if sinceMs > 0 && record.LastActivityMs < sinceMs {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastActivityMs == records[j].LastActivityMs {
			return records[i].EntryID < records[j].EntryID
		}
		return records[i].LastActivityMs > records[j].LastActivityMs
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// mergeEntryRecord keeps stable metadata from the existing record while
// letting the incoming one advance activity and content.
func mergeEntryRecord(existing, incoming EntryRecord) EntryRecord {
	out := incoming
	if out.CreatedAtMs == 0 || (existing.CreatedAtMs > 0 && existing.CreatedAtMs < out.CreatedAtMs) {
		out.CreatedAtMs = existing.CreatedAtMs
	}
	if existing.LastActivityMs > out.LastActivityMs {
		out.LastActivityMs = existing.LastActivityMs
	}
	if out.Role == "" {
		out.Role = existing.Role
	}
	return out
}
