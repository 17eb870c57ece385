package historystore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLiteEntryStore struct {
	db *sql.DB
}

var _ EntryStore = &SQLiteEntryStore{}

func NewSQLiteEntryStore(dsn string) (*SQLiteEntryStore, error) {
	if dsn == "" {
		return nil, errors.New("sqlite entry store: empty dsn")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteEntryStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// SQLiteEntryDSNForFile builds a DSN for a history database file.
func SQLiteEntryDSNForFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite entry store: empty path")
	}
	// WAL for concurrent readers + writer. busy_timeout to avoid transient SQLITE_BUSY.
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path), nil
}

func (s *SQLiteEntryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteEntryStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_entries (
			entry_id         TEXT PRIMARY KEY,
			role             TEXT NOT NULL DEFAULT '',
			raw_text         TEXT NOT NULL DEFAULT '',
			display_text     TEXT NOT NULL DEFAULT '',
			structured_json  TEXT NOT NULL DEFAULT '{}',
			events_json      TEXT NOT NULL DEFAULT '[]',
			is_streaming     INTEGER NOT NULL DEFAULT 0,
			created_at_ms    INTEGER NOT NULL DEFAULT 0,
			last_activity_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_conversation_entries_activity
			ON conversation_entries(last_activity_ms DESC);
	`)
	if err != nil {
		return errors.Wrap(err, "sqlite entry store: migrate")
	}
	return nil
}

func (s *SQLiteEntryStore) UpsertEntry(ctx context.Context, record EntryRecord) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite entry store: db is nil")
	}
	if record.EntryID == "" {
		return errors.New("sqlite entry store: entryID is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	isStreaming := int64(0)
	if record.IsStreaming {
		isStreaming = 1
	}
	structured := string(record.StructuredJSON)
	if structured == "" {
		structured = "{}"
	}
	eventsJSON := string(record.EventsJSON)
	if eventsJSON == "" {
		eventsJSON = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_entries (
			entry_id, role, raw_text, display_text, structured_json,
			events_json, is_streaming, created_at_ms, last_activity_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET
			role = CASE
				WHEN excluded.role <> '' THEN excluded.role
				ELSE conversation_entries.role
			END,
			raw_text = excluded.raw_text,
			display_text = excluded.display_text,
			structured_json = excluded.structured_json,
			events_json = excluded.events_json,
			is_streaming = excluded.is_streaming,
			created_at_ms = CASE
				WHEN conversation_entries.created_at_ms > 0 THEN conversation_entries.created_at_ms
				ELSE excluded.created_at_ms
			END,
			last_activity_ms = CASE
				WHEN excluded.last_activity_ms > conversation_entries.last_activity_ms THEN excluded.last_activity_ms
				ELSE conversation_entries.last_activity_ms
			END
	`, record.EntryID, record.Role, record.RawText, record.DisplayText, structured,
		eventsJSON, isStreaming, record.CreatedAtMs, record.LastActivityMs)
	if err != nil {
		return errors.Wrap(err, "sqlite entry store: upsert entry")
	}
	return nil
}

func (s *SQLiteEntryStore) GetEntry(ctx context.Context, entryID string) (EntryRecord, bool, error) {
	if s == nil || s.db == nil {
		return EntryRecord{}, false, errors.New("sqlite entry store: db is nil")
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return EntryRecord{}, false, errors.New("sqlite entry store: entryID is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		record      EntryRecord
		structured  string
		eventsJSON  string
		isStreaming int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT entry_id, role, raw_text, display_text, structured_json,
		       events_json, is_streaming, created_at_ms, last_activity_ms
		FROM conversation_entries
		WHERE entry_id = ?
	`, entryID).Scan(
		&record.EntryID,
		&record.Role,
		&record.RawText,
		&record.DisplayText,
		&structured,
		&eventsJSON,
		&isStreaming,
		&record.CreatedAtMs,
		&record.LastActivityMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return EntryRecord{}, false, nil
	}
	if err != nil {
		return EntryRecord{}, false, errors.Wrap(err, "sqlite entry store: get entry")
	}
	record.StructuredJSON = []byte(structured)
	record.EventsJSON = []byte(eventsJSON)
	record.IsStreaming = isStreaming == 1
	return record, true, nil
}

func (s *SQLiteEntryStore) ListEntries(ctx context.Context, limit int, sinceMs int64) ([]EntryRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite entry store: db is nil")
	}
	if limit <= 0 {
		limit = 200
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, role, raw_text, display_text, structured_json,
		       events_json, is_streaming, created_at_ms, last_activity_ms
		FROM conversation_entries
		WHERE last_activity_ms >= ?
		ORDER BY last_activity_ms DESC, entry_id ASC
		LIMIT ?
	`, sinceMs, limit)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite entry store: list entries")
	}
	defer func() { _ = rows.Close() }()

	var records []EntryRecord
	for rows.Next() {
		var (
			record      EntryRecord
			structured  string
			eventsJSON  string
			isStreaming int64
		)
		if err := rows.Scan(
			&record.EntryID,
			&record.Role,
			&record.RawText,
			&record.DisplayText,
			&structured,
			&eventsJSON,
			&isStreaming,
			&record.CreatedAtMs,
			&record.LastActivityMs,
		); err != nil {
			return nil, errors.Wrap(err, "sqlite entry store: scan entry")
		}
		record.StructuredJSON = []byte(structured)
		record.EventsJSON = []byte(eventsJSON)
		record.IsStreaming = isStreaming == 1
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite entry store: iterate entries")
	}
	return records, nil
}
