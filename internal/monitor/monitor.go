// Package monitor tracks backend reachability and drives sync triggers.
// It owns the online/offline transitions: the engine never probes the
// network itself.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/keval/invo/internal/remote"
	"github.com/keval/invo/internal/sync"
)

// ErrOffline is returned by SyncNow while the backend is unreachable.
var ErrOffline = errors.New("offline")

// Health is the reachability probe, satisfied by remote.Client.
type Health interface {
	HealthCheck(ctx context.Context) (*remote.HealthResponse, error)
}

const (
	defaultProbeInterval = 30 * time.Second
	defaultSyncInterval  = 5 * time.Minute
	probeTimeout         = 5 * time.Second
)

// Status is the combined surface shown to presentation layers.
type Status struct {
	IsOnline bool
	Sync     sync.Status
}

// Monitor polls the backend health endpoint, flips the engine's online
// state, and triggers a full sync on the offline-to-online transition and
// periodically while online.
type Monitor struct {
	engine *sync.Engine
	health Health
	tenant string

	// ProbeInterval is how often reachability is checked.
	ProbeInterval time.Duration
	// SyncInterval is how often a periodic sync runs while online.
	SyncInterval time.Duration

	// lastSync holds Unix nanos of the last successful sync trigger, zero
	// if none yet. Tick reads it while SyncNow writes from another
	// goroutine (the watch dashboard), so it must stay atomic.
	lastSync atomic.Int64
}

// New creates a monitor for one tenant.
func New(engine *sync.Engine, health Health, tenantID string) *Monitor {
	return &Monitor{
		engine:        engine,
		health:        health,
		tenant:        tenantID,
		ProbeInterval: defaultProbeInterval,
		SyncInterval:  defaultSyncInterval,
	}
}

// Run polls until ctx is cancelled. The first probe happens immediately so
// startup does not wait a full interval to come online.
func (m *Monitor) Run(ctx context.Context) {
	m.Tick(ctx)

	ticker := time.NewTicker(m.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick performs one probe and any sync it warrants.
func (m *Monitor) Tick(ctx context.Context) {
	wasOnline := m.engine.Online()
	online := m.probe(ctx)
	m.engine.SetOnline(online)

	switch {
	case online && !wasOnline:
		slog.Info("backend reachable, reconciling", "tenant", m.tenant)
		m.runSync(ctx)
	case online && time.Since(time.Unix(0, m.lastSync.Load())) >= m.SyncInterval:
		m.runSync(ctx)
	case !online && wasOnline:
		slog.Info("backend unreachable, queueing writes locally")
	}
}

// SyncNow is the manual trigger. It is rejected while offline (unless
// forced) and always rejected while a sync is already in flight; a new
// request is ignored, never queued behind the running one.
func (m *Monitor) SyncNow(ctx context.Context, force bool) (sync.SyncResult, error) {
	if !m.engine.Online() && !force {
		return sync.SyncResult{}, ErrOffline
	}
	if m.engine.IsSyncing() {
		return sync.SyncResult{}, sync.ErrSyncInProgress
	}
	res := m.engine.PerformFullSync(ctx, m.tenant)
	if res.Err == nil {
		m.lastSync.Store(time.Now().UnixNano())
	}
	return res, nil
}

// Status returns the combined connectivity and sync status. The pending
// count is read live from the queue, never cached.
func (m *Monitor) Status() (Status, error) {
	s, err := m.engine.Status(m.tenant)
	if err != nil {
		return Status{IsOnline: m.engine.Online()}, err
	}
	return Status{IsOnline: m.engine.Online(), Sync: s}, nil
}

func (m *Monitor) probe(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := m.health.HealthCheck(cctx)
	if err != nil {
		slog.Debug("health probe failed", "err", err)
		return false
	}
	return true
}

func (m *Monitor) runSync(ctx context.Context) {
	res := m.engine.PerformFullSync(ctx, m.tenant)
	if errors.Is(res.Err, sync.ErrSyncInProgress) {
		return
	}
	if res.Err != nil {
		slog.Warn("sync failed", "err", res.Err)
		return
	}
	m.lastSync.Store(time.Now().UnixNano())
}
