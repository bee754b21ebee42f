// Package queue implements the durable FIFO outbox of writes that have not
// yet been acknowledged by the hosted backend. Entries survive process
// restarts and are removed only after the backend confirms the operation.
package queue

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keval/invo/internal/models"
)

// Entry is one pending write operation.
type Entry struct {
	ID         string
	Table      string
	Op         models.Operation
	Payload    json.RawMessage
	EnqueuedAt time.Time
}

// Queue stores pending changes in the shared cache database.
type Queue struct {
	db *sql.DB
}

// New wraps an open cache connection. The pending_changes table is part of
// the store schema; Init exists for tests that bring their own database.
func New(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// Init creates the pending_changes table and index if they don't exist.
// enqueued_at holds Unix nanos: ordering by it is numeric, so entries
// always drain in enqueue order.
func Init(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_changes (
			id          TEXT PRIMARY KEY,
			tbl         TEXT NOT NULL,
			op          TEXT NOT NULL,
			payload     JSON NOT NULL,
			enqueued_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pending_changes_enqueued_at ON pending_changes(enqueued_at);
	`)
	if err != nil {
		return fmt.Errorf("init pending changes: %w", err)
	}
	return nil
}

// Enqueue appends a new entry with a fresh synthetic id and the current
// timestamp. Entries are never reordered after this point.
func (q *Queue) Enqueue(table string, op models.Operation, payload json.RawMessage) (Entry, error) {
	if !models.IsSyncedTable(table) {
		return Entry{}, fmt.Errorf("enqueue: unknown table %q", table)
	}
	if !models.ValidOperation(op) {
		return Entry{}, fmt.Errorf("enqueue: unknown operation %q", op)
	}

	id, err := entryID(table, op)
	if err != nil {
		return Entry{}, fmt.Errorf("enqueue: %w", err)
	}

	entry := Entry{
		ID:         id,
		Table:      table,
		Op:         op,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	_, err = q.db.Exec(
		`INSERT INTO pending_changes (id, tbl, op, payload, enqueued_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Table, string(entry.Op), []byte(entry.Payload),
		entry.EnqueuedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("enqueue: %w", err)
	}
	return entry, nil
}

// Drain returns all entries in enqueue order (oldest first) without
// removing them. Rowid breaks ties between entries enqueued within the
// same nanosecond tick.
func (q *Queue) Drain() ([]Entry, error) {
	rows, err := q.db.Query(
		`SELECT id, tbl, op, payload, enqueued_at FROM pending_changes ORDER BY enqueued_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var op string
		var payload []byte
		var nanos int64
		if err := rows.Scan(&e.ID, &e.Table, &op, &payload, &nanos); err != nil {
			return nil, fmt.Errorf("drain: scan: %w", err)
		}
		e.Op = models.Operation(op)
		e.Payload = payload
		e.EnqueuedAt = time.Unix(0, nanos).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Acknowledge removes a single confirmed entry.
func (q *Queue) Acknowledge(entryID string) error {
	_, err := q.db.Exec(`DELETE FROM pending_changes WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("acknowledge %s: %w", entryID, err)
	}
	return nil
}

// Clear removes all entries. Used on explicit reset, not during sync.
func (q *Queue) Clear() error {
	_, err := q.db.Exec(`DELETE FROM pending_changes`)
	if err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Len returns the number of pending entries.
func (q *Queue) Len() (int64, error) {
	var n int64
	err := q.db.QueryRow(`SELECT COUNT(*) FROM pending_changes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

// entryID synthesizes a collision-resistant id from the operation and a
// random suffix.
func entryID(table string, op models.Operation) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%d-%s", table, op, time.Now().UnixNano(), hex.EncodeToString(suffix)), nil
}
