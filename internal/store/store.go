// Package store implements the durable local cache of backend tables.
// It is a disposable mirror: the hosted backend remains the source of
// truth and the cache can always be rebuilt from a full download.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keval/invo/internal/models"
	_ "modernc.org/sqlite"
)

const dbFile = ".invo/cache.db"

// StorageError wraps a failure of the local durable storage layer
// (quota, corruption, locked database). Callers that only need a cache
// may treat it as "no cached data" rather than a hard failure.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Table: table, Err: err}
}

// Store wraps the local SQLite cache.
type Store struct {
	conn    *sql.DB
	baseDir string
}

// Open opens an existing cache database.
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("cache not found: run 'invo init' first")
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	// Schema is idempotent; re-running covers tables added since init.
	if _, err := conn.Exec(schemaSQL()); err != nil {
		conn.Close()
		return nil, storageErr("migrate", "", err)
	}

	return &Store{conn: conn, baseDir: baseDir}, nil
}

// Initialize creates the cache database and its schema.
func Initialize(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, storageErr("create dir", "", err)
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(schemaSQL()); err != nil {
		conn.Close()
		return nil, storageErr("create schema", "", err)
	}

	return &Store{conn: conn, baseDir: baseDir}, nil
}

func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open", "", err)
	}

	// WAL allows concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, storageErr("enable WAL", "", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, storageErr("set busy timeout", "", err)
	}
	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	return conn, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// BaseDir returns the base directory the cache lives under.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Conn returns the underlying *sql.DB for components that share the cache
// file (the mutation queue).
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// checkTable rejects table names outside the synchronized set before they
// reach any SQL string.
func checkTable(op, table string) error {
	if !models.IsSyncedTable(table) {
		return &StorageError{Op: op, Table: table, Err: fmt.Errorf("unknown table")}
	}
	return nil
}

// Put upserts a single record by id. Re-saving an existing id overwrites it.
func (s *Store) Put(table string, rec models.Record) error {
	if err := checkTable("put", table); err != nil {
		return err
	}
	return storageErr("put", table, s.put(s.conn, table, rec))
}

// PutAll upserts records in one transaction.
func (s *Store) PutAll(table string, recs []models.Record) error {
	if err := checkTable("put", table); err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return storageErr("put", table, err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := s.put(tx, table, rec); err != nil {
			return storageErr("put", table, err)
		}
	}
	return storageErr("put", table, tx.Commit())
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) put(e execer, table string, rec models.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("record has no id")
	}
	payload, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", id, err)
	}

	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (id, %s, payload, updated_at) VALUES (?, ?, ?, ?)`,
		table, models.ScopeColumn(table),
	)
	_, err = e.Exec(query, id, models.ScopeValue(table, rec), payload, nowTimestamp())
	return err
}

// GetAllForTenant returns every cached record whose tenant matches. For the
// line-items table, which has no tenant column, all records are returned and
// callers must filter client-side if needed.
func (s *Store) GetAllForTenant(table, tenantID string) ([]models.Record, error) {
	if err := checkTable("get all", table); err != nil {
		return nil, err
	}

	var rows *sql.Rows
	var err error
	if models.TenantScoped(table) {
		rows, err = s.conn.Query(
			fmt.Sprintf(`SELECT payload FROM %s WHERE company_id = ? ORDER BY id`, table),
			tenantID,
		)
	} else {
		rows, err = s.conn.Query(fmt.Sprintf(`SELECT payload FROM %s ORDER BY id`, table))
	}
	if err != nil {
		return nil, storageErr("get all", table, err)
	}
	defer rows.Close()

	var recs []models.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, storageErr("get all", table, err)
		}
		rec, err := models.UnmarshalRecord(payload)
		if err != nil {
			return nil, storageErr("get all", table, err)
		}
		recs = append(recs, rec)
	}
	return recs, storageErr("get all", table, rows.Err())
}

// GetByID returns a cached record, or nil if absent.
func (s *Store) GetByID(table, id string) (models.Record, error) {
	if err := checkTable("get", table); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.conn.QueryRow(
		fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, table), id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get", table, err)
	}

	rec, err := models.UnmarshalRecord(payload)
	if err != nil {
		return nil, storageErr("get", table, err)
	}
	return rec, nil
}

// Delete removes a cached record. Deleting an absent id is a no-op.
func (s *Store) Delete(table, id string) error {
	if err := checkTable("delete", table); err != nil {
		return err
	}
	_, err := s.conn.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	return storageErr("delete", table, err)
}

// ClearTable wipes one cached table.
func (s *Store) ClearTable(table string) error {
	if err := checkTable("clear", table); err != nil {
		return err
	}
	_, err := s.conn.Exec(fmt.Sprintf(`DELETE FROM %s`, table))
	return storageErr("clear", table, err)
}

// ClearAll wipes every cached entity table. Used when abandoning the offline
// cache entirely (tenant switch, logout). The mutation queue and sync
// metadata are owned by their callers and cleared separately.
func (s *Store) ClearAll() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return storageErr("clear all", "", err)
	}
	defer tx.Rollback()

	for _, table := range models.SyncedTables {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return storageErr("clear all", table, err)
		}
	}
	return storageErr("clear all", "", tx.Commit())
}
