package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails saves while broken is set
type flakyStore struct {
	*ledger.MemoryStore
	broken atomic.Bool
}

func (s *flakyStore) Save(ctx context.Context, key string, data []byte) error {
	if s.broken.Load() {
		return errors.New("store unavailable")
	}
	return s.MemoryStore.Save(ctx, key, data)
}

func newWatched(t *testing.T, store ledger.Store) (*SnapshotWatcher, *ledger.Ledger, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	w := NewSnapshotWatcher(store, time.Millisecond, metrics.NewLedger(reg), nil)
	l := ledger.New(w)
	require.NoError(t, l.Load(context.Background()))
	return w, l, reg
}

func TestWatcherIgnoresOwnWrites(t *testing.T) {
	store := ledger.NewMemoryStore()
	w, l, _ := newWatched(t, store)
	ctx := context.Background()

	_, err := l.CreateItem(ctx, "pears", ledger.Attributes{Quantity: 4, UnitPrice: decimal.NewFromInt(1)})
	require.NoError(t, err)

	assert.False(t, w.Check(ctx, l))
	item, err := l.Item("pears")
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
}

func TestWatcherReloadsForeignSnapshot(t *testing.T) {
	store := ledger.NewMemoryStore()
	w, l, reg := newWatched(t, store)
	ctx := context.Background()

	// another process owning the same key
	other := ledger.New(store)
	require.NoError(t, other.Load(ctx))
	_, err := other.CreateItem(ctx, "plums", ledger.Attributes{Quantity: 9})
	require.NoError(t, err)

	assert.True(t, w.Check(ctx, l))
	item, err := l.Item("plums")
	require.NoError(t, err)
	assert.Equal(t, 9, item.Quantity)

	assert.False(t, w.Check(ctx, l), "second poll sees nothing new")
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP farm_ledger_external_reloads_total Snapshot reloads triggered by changes from another process.
# TYPE farm_ledger_external_reloads_total counter
farm_ledger_external_reloads_total{outcome="replaced"} 1
`), "farm_ledger_external_reloads_total"))
}

func TestWatcherRejectsMalformedSnapshot(t *testing.T) {
	store := ledger.NewMemoryStore()
	w, l, _ := newWatched(t, store)
	ctx := context.Background()
	before := len(l.Items())

	require.NoError(t, store.Save(ctx, l.Key(), []byte(`{"version":1,"items":[{"item_id":""}]}`)))

	assert.False(t, w.Check(ctx, l))
	assert.Len(t, l.Items(), before)
}

func TestWatcherFlushesDirtyLedgerFirst(t *testing.T) {
	store := &flakyStore{MemoryStore: ledger.NewMemoryStore()}
	w, l, _ := newWatched(t, store)
	ctx := context.Background()

	store.broken.Store(true)
	_, err := l.CreateItem(ctx, "figs", ledger.Attributes{Quantity: 2})
	require.ErrorIs(t, err, ledger.ErrPersistence)
	require.True(t, l.Dirty())

	assert.False(t, w.Check(ctx, l))
	_, err = l.Item("figs")
	require.NoError(t, err, "local change survives while the store is down")

	store.broken.Store(false)
	assert.False(t, w.Check(ctx, l))
	assert.False(t, l.Dirty())

	data, ok, err := store.Load(ctx, l.Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), `"figs"`)
}

func TestWatcherRunCallsOnReload(t *testing.T) {
	store := ledger.NewMemoryStore()
	w, l, _ := newWatched(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	go w.Run(ctx, l, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	other := ledger.New(store)
	require.NoError(t, other.Load(context.Background()))
	_, err := other.CreateItem(context.Background(), "kiwis", ledger.Attributes{Quantity: 1})
	require.NoError(t, err)

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reloaded")
	}
	_, err = l.Item("kiwis")
	assert.NoError(t, err)
}
