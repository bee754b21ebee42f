package sync

import (
	"context"
	"errors"
	"time"

	"github.com/keval/invo/internal/models"
)

// ErrSyncInProgress is returned when a full sync is requested while another
// one is still running. The caller should skip, not queue, the request.
var ErrSyncInProgress = errors.New("sync already in progress")

// Backend is the remote table-CRUD contract the engine reconciles against.
// remote.Client is the production implementation.
type Backend interface {
	SelectAllByTenant(ctx context.Context, table, tenantID string) ([]models.Record, error)
	SelectAll(ctx context.Context, table string) ([]models.Record, error)
	Insert(ctx context.Context, table string, rec models.Record) (models.Record, error)
	Update(ctx context.Context, table, id string, partial models.Record) (models.Record, error)
	Delete(ctx context.Context, table, id string) error
}

// UploadResult summarises one pass over the mutation queue.
type UploadResult struct {
	Succeeded int // delivered and acknowledged
	Failed    int // left queued for the next attempt
	Invalid   int // malformed entries dropped from the queue
}

// SyncResult is the outcome of a full upload-then-download cycle.
type SyncResult struct {
	Uploaded   int
	Downloaded bool
	Err        error
}

// Status is the live sync state surfaced to presentation layers. It is
// computed on demand, never persisted.
type Status struct {
	IsSyncing      bool
	LastSyncTime   *time.Time
	PendingChanges int64
	Error          string
}

// RemoteFetch is the remote read used by GetDataWithFallback. It is passed
// in by the caller so list screens can apply their own query parameters.
type RemoteFetch func(ctx context.Context) ([]models.Record, error)
