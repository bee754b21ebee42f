package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/keval/invo/internal/models"
)

// schemaSQL builds the cache schema from the synced-table registry: one
// table per backend table, keyed by id and indexed by its scope column,
// plus the mutation queue and per-tenant sync metadata.
func schemaSQL() string {
	var b strings.Builder

	for _, table := range models.SyncedTables {
		scope := models.ScopeColumn(table)
		fmt.Fprintf(&b, `
CREATE TABLE IF NOT EXISTS %[1]s (
	id         TEXT PRIMARY KEY,
	%[2]s      TEXT NOT NULL DEFAULT '',
	payload    JSON NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_%[2]s ON %[1]s(%[2]s);
`, table, scope)
	}

	b.WriteString(`
CREATE TABLE IF NOT EXISTS pending_changes (
	id          TEXT PRIMARY KEY,
	tbl         TEXT NOT NULL,
	op          TEXT NOT NULL,
	payload     JSON NOT NULL,
	enqueued_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_changes_enqueued_at ON pending_changes(enqueued_at);

CREATE TABLE IF NOT EXISTS sync_meta (
	tenant_id      TEXT PRIMARY KEY,
	last_sync_time TEXT NOT NULL
);
`)

	return b.String()
}

// nowTimestamp formats the current instant the way all cache timestamps are
// stored: RFC3339Nano, UTC.
func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseTimestamp reads a stored timestamp, tolerating second-precision
// values written by older builds.
func parseTimestamp(s string) (time.Time, error) {
	for _, f := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
