package service

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/pkg/metrics"

	"go.uber.org/zap"
)

// Reload outcomes reported to metrics
const (
	ReloadReplaced = "replaced"
	ReloadRejected = "rejected"
	ReloadError    = "error"
)

// SnapshotWatcher sits between the ledger and its store. It remembers the
// last snapshot this process wrote or accepted, and on every tick reloads
// the ledger when the stored snapshot differs from it. Concurrent writers
// resolve last-writer-wins.
type SnapshotWatcher struct {
	store    ledger.Store
	interval time.Duration
	metrics  *metrics.Ledger
	log      *zap.Logger

	mu   sync.Mutex
	last map[string][]byte
}

func NewSnapshotWatcher(store ledger.Store, interval time.Duration, m *metrics.Ledger, log *zap.Logger) *SnapshotWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotWatcher{
		store:    store,
		interval: interval,
		metrics:  m,
		log:      log.With(zap.String("component", "snapshot_watcher")),
		last:     make(map[string][]byte),
	}
}

func (w *SnapshotWatcher) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := w.store.Load(ctx, key)
	if err == nil && ok {
		w.remember(key, data)
	}
	return data, ok, err
}

func (w *SnapshotWatcher) Save(ctx context.Context, key string, data []byte) error {
	if err := w.store.Save(ctx, key, data); err != nil {
		return err
	}
	w.remember(key, data)
	return nil
}

// Run polls until ctx is cancelled. A non-positive interval disables
// polling. onReload runs after every successful external replacement.
func (w *SnapshotWatcher) Run(ctx context.Context, l *ledger.Ledger, onReload func()) {
	if w.interval <= 0 {
		w.log.Info("snapshot_watcher_disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.Check(ctx, l) && onReload != nil {
				onReload()
			}
		}
	}
}

// Check runs one poll and reports whether the ledger was replaced. A ledger
// with unsaved changes is flushed first; while the flush keeps failing the
// stored snapshot is left alone so local changes are not discarded.
func (w *SnapshotWatcher) Check(ctx context.Context, l *ledger.Ledger) bool {
	if l.Dirty() {
		if err := l.Flush(ctx); err != nil {
			w.log.Warn("ledger_flush_failed", zap.Error(err))
			return false
		}
		w.log.Info("ledger_flushed")
	}

	key := l.Key()
	data, ok, err := w.store.Load(ctx, key)
	if err != nil {
		w.metrics.ExternalReload(ReloadError)
		w.log.Warn("snapshot_poll_failed", zap.Error(err))
		return false
	}
	if !ok || w.seen(key, data) {
		return false
	}

	// First poll after start: nothing remembered yet, so compare with the
	// ledger's own encoding before treating the snapshot as foreign.
	if !w.known(key) {
		if own, err := l.Snapshot(); err == nil && bytes.Equal(own, data) {
			w.remember(key, data)
			return false
		}
	}

	if err := l.OnExternalChange(data); err != nil {
		w.metrics.ExternalReload(ReloadRejected)
		w.log.Error("external_snapshot_rejected", zap.Error(err))
		// Remember it anyway so a bad snapshot is reported once, not every tick.
		w.remember(key, data)
		return false
	}

	w.remember(key, data)
	w.metrics.ExternalReload(ReloadReplaced)
	w.log.Info("ledger_reloaded_external", zap.Int("bytes", len(data)))
	return true
}

func (w *SnapshotWatcher) remember(key string, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	w.mu.Lock()
	w.last[key] = cp
	w.mu.Unlock()
}

func (w *SnapshotWatcher) seen(key string, data []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.last[key]
	return ok && bytes.Equal(last, data)
}

func (w *SnapshotWatcher) known(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.last[key]
	return ok
}
