package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go-farm-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultKey is the store key the ledger snapshot lives under.
const DefaultKey = "inventory_ledger"

// Ledger owns authoritative stock levels and the append-only delta log.
// Every mutation takes the write lock for validation, mutation, log append
// and persistence, so readers never observe a half-applied delta.
type Ledger struct {
	mu      sync.RWMutex
	key     string
	store   Store
	items   map[string]*StockItem
	order   []string
	deltas  []StockDelta
	applied map[deltaKey]struct{}
	dirty   bool

	now   func() time.Time
	newID func() uuid.UUID
	log   *zap.Logger
}

type Option func(*Ledger)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides how delta ids are minted.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		key:     DefaultKey,
		store:   store,
		items:   make(map[string]*StockItem),
		applied: make(map[deltaKey]struct{}),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.New,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With(zap.String("component", "ledger"), zap.String("ledger_key", l.key))
	return l
}

// Key returns the store key this ledger persists under.
func (l *Ledger) Key() string { return l.key }

// Load reads the persisted snapshot. On first run nothing is stored yet, so
// the default categories are seeded and saved.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, ok, err := l.store.Load(ctx, l.key)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	if !ok {
		l.resetLocked()
		now := l.now()
		for _, seed := range DefaultCategories {
			item := seed
			item.CreatedAt = now
			item.UpdatedAt = now
			l.insertLocked(&item)
		}
		l.log.Info("ledger_seeded", zap.Int("items", len(l.order)))
		return l.persistLocked(ctx)
	}

	st, err := decode(data)
	if err != nil {
		return err
	}
	l.swapLocked(st)
	l.log.Info("ledger_loaded",
		zap.Int("items", len(l.order)),
		zap.Int("deltas", len(l.deltas)),
	)
	return nil
}

// CreateItem inserts a new item. Quantity starts at attrs.Quantity, which is
// recorded as the opening balance.
func (l *Ledger) CreateItem(ctx context.Context, itemID string, attrs Attributes) (StockItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return StockItem{}, fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}
	if err := validateAttributes(attrs); err != nil {
		return StockItem{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.items[itemID]; exists {
		return StockItem{}, fmt.Errorf("%w: %q", ErrDuplicateItem, itemID)
	}

	now := l.now()
	item := &StockItem{
		ItemID:          itemID,
		Category:        strings.TrimSpace(attrs.Category),
		Quantity:        attrs.Quantity,
		OpeningQuantity: attrs.Quantity,
		ReorderLevel:    attrs.ReorderLevel,
		UnitPrice:       attrs.UnitPrice,
		MaxWeight:       attrs.MaxWeight,
		RestockDate:     attrs.RestockDate,
		StorageLocation: strings.TrimSpace(attrs.StorageLocation),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	l.insertLocked(item)
	l.log.Info("item_created",
		zap.String("item_id", itemID),
		zap.Int("opening_quantity", attrs.Quantity),
	)

	return item.clone(), l.persistLocked(ctx)
}

// UpdateItem replaces the descriptive attributes of an item. attrs.Quantity
// is ignored: stock only moves through ApplyDelta.
func (l *Ledger) UpdateItem(ctx context.Context, itemID string, attrs Attributes) (StockItem, error) {
	attrs.Quantity = 0
	if err := validateAttributes(attrs); err != nil {
		return StockItem{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[itemID]
	if !ok {
		return StockItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}

	item.Category = strings.TrimSpace(attrs.Category)
	item.ReorderLevel = attrs.ReorderLevel
	item.UnitPrice = attrs.UnitPrice
	item.MaxWeight = attrs.MaxWeight
	item.RestockDate = attrs.RestockDate
	item.StorageLocation = strings.TrimSpace(attrs.StorageLocation)
	item.UpdatedAt = l.now()

	return item.clone(), l.persistLocked(ctx)
}

// ApplyDelta moves an item's quantity by a signed amount. The pair
// (source, referenceID) may only ever be applied once.
//
// A returned error wrapping ErrPersistence means the delta was applied in
// memory but the snapshot save failed; the returned delta is valid and
// Flush may be retried.
func (l *Ledger) ApplyDelta(ctx context.Context, itemID string, quantity int, source Source, referenceID string) (StockDelta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, err := l.applyLocked(itemID, quantity, source, referenceID)
	if err != nil {
		return StockDelta{}, err
	}
	return d, l.persistLocked(ctx)
}

func (l *Ledger) applyLocked(itemID string, quantity int, source Source, referenceID string) (StockDelta, error) {
	referenceID = strings.TrimSpace(referenceID)
	switch {
	case !source.Valid():
		return StockDelta{}, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, source)
	case quantity == 0:
		return StockDelta{}, fmt.Errorf("%w: quantity must be non-zero", ErrInvalidInput)
	case !source.allows(quantity):
		return StockDelta{}, fmt.Errorf("%w: quantity %d not allowed for source %s", ErrInvalidInput, quantity, source)
	case referenceID == "":
		return StockDelta{}, fmt.Errorf("%w: reference id is required", ErrInvalidInput)
	}

	item, ok := l.items[itemID]
	if !ok {
		return StockDelta{}, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}

	k := deltaKey{source: source, ref: referenceID}
	if _, dup := l.applied[k]; dup {
		return StockDelta{}, fmt.Errorf("%w: %s/%s", ErrDuplicateDelta, source, referenceID)
	}

	if quantity > 0 && item.Quantity > math.MaxInt-quantity {
		return StockDelta{}, fmt.Errorf("%w: adding %d to %q overflows its quantity", ErrInvalidInput, quantity, itemID)
	}
	next := item.Quantity + quantity
	if next < 0 {
		return StockDelta{}, fmt.Errorf("%w: %q has %d, requested %d", ErrInsufficientStock, itemID, item.Quantity, -quantity)
	}

	now := l.now()
	d := StockDelta{
		ID:           l.newID(),
		ItemID:       itemID,
		Quantity:     quantity,
		Source:       source,
		ReferenceID:  referenceID,
		BalanceAfter: next,
		AppliedAt:    now,
	}

	item.Quantity = next
	item.UpdatedAt = now
	l.deltas = append(l.deltas, d)
	l.applied[k] = struct{}{}

	l.log.Debug("delta_applied",
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity),
		zap.String("source", string(source)),
		zap.String("reference_id", referenceID),
		zap.Int("balance_after", next),
	)
	return d, nil
}

// RestockResult reports what a restock run did.
type RestockResult struct {
	RunID   string       `json:"run_id"`
	Applied []StockDelta `json:"applied"`
	Skipped []string     `json:"skipped"`
}

// Restock tops up every low-stock item by twice its reorder level. Each
// item's delta is keyed by runID, so repeating a run skips items it
// already restocked instead of adding stock again. The whole run is checked
// before any item moves: either every planned delta applies or none does.
func (l *Ledger) Restock(ctx context.Context, runID string) (RestockResult, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return RestockResult{}, fmt.Errorf("%w: run id is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	type planned struct {
		id     string
		amount int
		ref    string
	}
	var plan []planned

	res := RestockResult{RunID: runID}
	for _, id := range l.order {
		item := l.items[id]
		if !item.IsLowStock() || item.ReorderLevel == 0 {
			continue
		}
		ref := runID + ":" + id
		if _, dup := l.applied[deltaKey{source: SourceRestock, ref: ref}]; dup {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		if item.ReorderLevel > MaxQuantity {
			return RestockResult{RunID: runID}, fmt.Errorf("%w: reorder level of %q exceeds %d", ErrInvalidInput, id, MaxQuantity)
		}
		amount := item.RestockAmount()
		if item.Quantity > math.MaxInt-amount {
			return RestockResult{RunID: runID}, fmt.Errorf("%w: restocking %q overflows its quantity", ErrInvalidInput, id)
		}
		plan = append(plan, planned{id: id, amount: amount, ref: ref})
	}

	for _, p := range plan {
		d, err := l.applyLocked(p.id, p.amount, SourceRestock, p.ref)
		if err != nil {
			if len(res.Applied) > 0 {
				if perr := l.persistLocked(ctx); perr != nil {
					err = errors.Join(err, perr)
				}
			}
			return res, err
		}
		res.Applied = append(res.Applied, d)
	}

	if len(res.Applied) == 0 {
		return res, nil
	}
	return res, l.persistLocked(ctx)
}

// Flush saves the current state if an earlier save failed.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}
	return l.persistLocked(ctx)
}

// Dirty reports whether the in-memory state has changes the store is missing.
func (l *Ledger) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// OnExternalChange replaces the ledger state wholesale with a snapshot
// written by another process. Local changes not reflected in the snapshot
// are discarded. A malformed snapshot leaves the ledger untouched.
func (l *Ledger) OnExternalChange(snapshot []byte) error {
	st, err := decode(snapshot)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.swapLocked(st)
	l.dirty = false
	l.log.Info("ledger_replaced_external",
		zap.Int("items", len(l.order)),
		zap.Int("deltas", len(l.deltas)),
	)
	return nil
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	data, err := l.encodeLocked()
	if err != nil {
		l.dirty = true
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := l.store.Save(ctx, l.key, data); err != nil {
		l.dirty = true
		l.log.Warn("ledger_persist_failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	l.dirty = false
	return nil
}

func (l *Ledger) insertLocked(item *StockItem) {
	l.items[item.ItemID] = item
	l.order = append(l.order, item.ItemID)
}

func (l *Ledger) resetLocked() {
	l.items = make(map[string]*StockItem)
	l.order = nil
	l.deltas = nil
	l.applied = make(map[deltaKey]struct{})
}

func (l *Ledger) swapLocked(st *state) {
	l.items = st.items
	l.order = st.order
	l.deltas = st.deltas
	l.applied = st.applied
}

func validateAttributes(attrs Attributes) error {
	if errs := validator.ValidateStruct(&attrs); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, validator.Describe(errs))
	}
	return nil
}
