package store

import (
	"database/sql"
	"time"
)

// LastSyncTime returns the end time of the tenant's last successful full
// download, or nil if the tenant has never synced.
func (s *Store) LastSyncTime(tenantID string) (*time.Time, error) {
	var raw string
	err := s.conn.QueryRow(
		`SELECT last_sync_time FROM sync_meta WHERE tenant_id = ?`, tenantID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get sync meta", "", err)
	}

	t, err := parseTimestamp(raw)
	if err != nil {
		return nil, storageErr("get sync meta", "", err)
	}
	return &t, nil
}

// SetLastSyncTime records the completion of a full download for a tenant.
func (s *Store) SetLastSyncTime(tenantID string, t time.Time) error {
	_, err := s.conn.Exec(
		`INSERT OR REPLACE INTO sync_meta (tenant_id, last_sync_time) VALUES (?, ?)`,
		tenantID, t.UTC().Format(time.RFC3339Nano),
	)
	return storageErr("set sync meta", "", err)
}

// ClearSyncMeta forgets all recorded sync times (used on reset).
func (s *Store) ClearSyncMeta() error {
	_, err := s.conn.Exec(`DELETE FROM sync_meta`)
	return storageErr("clear sync meta", "", err)
}
