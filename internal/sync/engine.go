// Package sync reconciles the local cache and mutation queue with the
// hosted backend. The engine is the only component that talks to both
// sides; it owns the store and the queue exclusively.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keval/invo/internal/models"
	"github.com/keval/invo/internal/queue"
	"github.com/keval/invo/internal/remote"
	"github.com/keval/invo/internal/store"
)

// Engine orchestrates upload-then-download reconciliation.
type Engine struct {
	store   *store.Store
	queue   *queue.Queue
	backend Backend

	online  atomic.Bool
	syncing atomic.Bool

	mu      sync.Mutex
	lastErr string
}

// New creates an engine over an open store and queue. The engine starts
// offline; the connectivity monitor flips it online once the backend
// answers a health check.
func New(st *store.Store, q *queue.Queue, backend Backend) *Engine {
	return &Engine{store: st, queue: q, backend: backend}
}

// SetOnline records the current connectivity state.
func (e *Engine) SetOnline(online bool) {
	e.online.Store(online)
}

// Online reports the last observed connectivity state.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// IsSyncing reports whether a full sync is currently running.
func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// UploadPendingChanges replays the mutation queue against the backend in
// enqueue order. A failed entry stays queued and the loop continues, so
// every entry is attempted once per pass (at-least-once delivery).
// Malformed entries that can never succeed are dropped with a warning.
func (e *Engine) UploadPendingChanges(ctx context.Context) (UploadResult, error) {
	var result UploadResult

	entries, err := e.queue.Drain()
	if err != nil {
		return result, fmt.Errorf("upload: %w", err)
	}

	for _, entry := range entries {
		rec, err := models.UnmarshalRecord(entry.Payload)
		if err != nil {
			slog.Warn("upload: dropping entry with unreadable payload",
				"entry", entry.ID, "err", err)
			e.drop(entry.ID)
			result.Invalid++
			continue
		}

		if entry.Op != models.OpInsert && rec.ID() == "" {
			slog.Warn("upload: dropping entry with no record id",
				"entry", entry.ID, "op", entry.Op)
			e.drop(entry.ID)
			result.Invalid++
			continue
		}

		if err := e.dispatch(ctx, entry, rec); err != nil {
			slog.Warn("upload: entry failed, keeping queued",
				"entry", entry.ID, "table", entry.Table, "op", entry.Op, "err", err)
			result.Failed++
			continue
		}

		if err := e.queue.Acknowledge(entry.ID); err != nil {
			// Delivered but not forgotten; the duplicate retry next pass is
			// absorbed by the backend's idempotent upsert.
			slog.Warn("upload: acknowledge failed", "entry", entry.ID, "err", err)
		}
		result.Succeeded++
	}

	slog.Debug("upload: done",
		"succeeded", result.Succeeded, "failed", result.Failed, "invalid", result.Invalid)
	return result, nil
}

// dispatch applies one queued operation to the backend.
func (e *Engine) dispatch(ctx context.Context, entry queue.Entry, rec models.Record) error {
	switch entry.Op {
	case models.OpInsert:
		_, err := e.backend.Insert(ctx, entry.Table, rec)
		return err
	case models.OpUpdate:
		_, err := e.backend.Update(ctx, entry.Table, rec.ID(), rec)
		return err
	case models.OpDelete:
		err := e.backend.Delete(ctx, entry.Table, rec.ID())
		if errors.Is(err, remote.ErrNotFound) {
			// Already gone remotely; the delete is delivered.
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown operation %q", entry.Op)
	}
}

func (e *Engine) drop(entryID string) {
	if err := e.queue.Acknowledge(entryID); err != nil {
		slog.Warn("upload: drop failed", "entry", entryID, "err", err)
	}
}

// DownloadAllData refreshes every synchronized table for the tenant from the
// backend. A failed table is skipped and the rest still refresh; the
// tenant's last-sync time is stamped after all tables were attempted,
// regardless of individual failures.
func (e *Engine) DownloadAllData(ctx context.Context, tenantID string) error {
	for _, table := range models.SyncedTables {
		var recs []models.Record
		var err error
		if models.TenantScoped(table) {
			recs, err = e.backend.SelectAllByTenant(ctx, table, tenantID)
		} else {
			recs, err = e.backend.SelectAll(ctx, table)
		}
		if err != nil {
			slog.Warn("download: fetch failed, skipping table", "table", table, "err", err)
			continue
		}

		if err := e.store.PutAll(table, recs); err != nil {
			slog.Warn("download: cache refresh failed", "table", table, "err", err)
			continue
		}
		slog.Debug("download: table refreshed", "table", table, "records", len(recs))
	}

	if err := e.store.SetLastSyncTime(tenantID, time.Now()); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	return nil
}

// PerformFullSync runs the upload phase and then the download phase. The
// download runs even when some uploads failed, so the cache still reflects
// the freshest remote truth for everything else. Only one full sync may run
// at a time; a concurrent call gets ErrSyncInProgress.
func (e *Engine) PerformFullSync(ctx context.Context, tenantID string) SyncResult {
	if !e.syncing.CompareAndSwap(false, true) {
		return SyncResult{Err: ErrSyncInProgress}
	}
	defer e.syncing.Store(false)

	var result SyncResult

	up, upErr := e.UploadPendingChanges(ctx)
	result.Uploaded = up.Succeeded

	dlErr := e.DownloadAllData(ctx, tenantID)
	result.Downloaded = dlErr == nil

	switch {
	case upErr != nil:
		result.Err = upErr
	case dlErr != nil:
		result.Err = dlErr
	case up.Failed > 0:
		result.Err = fmt.Errorf("%d queued changes failed to upload", up.Failed)
	}

	if result.Err != nil {
		e.setLastError(result.Err.Error())
	} else {
		e.setLastError("")
	}

	slog.Info("full sync finished",
		"tenant", tenantID,
		"uploaded", result.Uploaded,
		"upload_failed", up.Failed,
		"downloaded", result.Downloaded)
	return result
}

// GetDataWithFallback is the standard read path: remote-preferred while
// online, with the result mirrored into the cache; the cache serves the
// read when offline or when the remote call fails.
func (e *Engine) GetDataWithFallback(ctx context.Context, table, tenantID string, fetch RemoteFetch) ([]models.Record, error) {
	if e.Online() {
		recs, err := fetch(ctx)
		if err == nil {
			if putErr := e.store.PutAll(table, recs); putErr != nil {
				slog.Warn("read: cache refresh failed", "table", table, "err", putErr)
			}
			return recs, nil
		}
		slog.Debug("read: remote failed, serving cache", "table", table, "err", err)
	}
	return e.store.GetAllForTenant(table, tenantID)
}

// QueueChange records a write made while disconnected: the entry is appended
// to the durable queue and mirrored into the cache so reads in the same
// session already see it. Deletes are mirrored too: the record disappears
// from the local view before the backend confirms. If mirroring fails the
// change is still safely queued; the entry and the storage error are both
// returned.
func (e *Engine) QueueChange(table string, op models.Operation, payload models.Record) (queue.Entry, error) {
	data, err := payload.Marshal()
	if err != nil {
		return queue.Entry{}, fmt.Errorf("queue change: %w", err)
	}

	entry, err := e.queue.Enqueue(table, op, data)
	if err != nil {
		return queue.Entry{}, fmt.Errorf("queue change: %w", err)
	}

	switch op {
	case models.OpInsert, models.OpUpdate:
		if err := e.store.Put(table, payload); err != nil {
			return entry, fmt.Errorf("queued, but cache mirror failed: %w", err)
		}
	case models.OpDelete:
		if err := e.store.Delete(table, payload.ID()); err != nil {
			return entry, fmt.Errorf("queued, but cache mirror failed: %w", err)
		}
	}
	return entry, nil
}

// Status computes the live sync status for a tenant from the queue length
// and the recorded last-sync time.
func (e *Engine) Status(tenantID string) (Status, error) {
	pending, err := e.queue.Len()
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	last, err := e.store.LastSyncTime(tenantID)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return Status{
		IsSyncing:      e.syncing.Load(),
		LastSyncTime:   last,
		PendingChanges: pending,
		Error:          e.lastError(),
	}, nil
}

func (e *Engine) setLastError(msg string) {
	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()
}

func (e *Engine) lastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
