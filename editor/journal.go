// ABOUTME: SQLite-backed append-only journal of edits applied to editor sessions.
// ABOUTME: Entries get ULID ids and are listed per session in the order they were written.

package editor

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// JournalEntry records one attempted edit and how it ended.
type JournalEntry struct {
	EntryID   string    `json:"entryId"`
	SessionID string    `json:"sessionId"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload,omitempty"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"createdAt"`
}

// Outcome recorded for edits that changed the session.
const OutcomeApplied = "applied"

// Journal is a SQLite-backed edit log. It is an audit trail, not the source of
// truth for session text.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens or creates a journal database at path. ":memory:" gives a
// private in-process journal.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS journal (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			outcome TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS journal_session ON journal(session_id, seq);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the SQLite database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append writes entry, filling in its id and timestamp when unset.
func (j *Journal) Append(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	if entry.EntryID == "" {
		entry.EntryID = ulid.MustNew(ulid.Now(), rand.Reader).String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (entry_id, session_id, kind, payload, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.EntryID,
		entry.SessionID,
		entry.Kind,
		entry.Payload,
		entry.Outcome,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return entry, fmt.Errorf("append journal entry: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries for a session, oldest first. A limit of
// zero or less returns every entry.
func (j *Journal) List(ctx context.Context, sessionID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT entry_id, session_id, kind, payload, outcome, created_at
		 FROM journal WHERE session_id = ? ORDER BY seq LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var created string
		if err := rows.Scan(&e.EntryID, &e.SessionID, &e.Kind, &e.Payload, &e.Outcome, &created); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
