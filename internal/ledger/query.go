package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// demandFactor scales recent inbound purchases into predicted demand.
var demandFactor = decimal.RequireFromString("0.8")

type Verdict string

const (
	VerdictSufficient         Verdict = "sufficient"
	VerdictRestockRecommended Verdict = "restock-recommended"
)

// Forecast is the demand estimate for a single item.
type Forecast struct {
	ItemID          string          `json:"item_id"`
	Category        string          `json:"category"`
	InboundQuantity int             `json:"inbound_quantity"`
	PredictedDemand decimal.Decimal `json:"predicted_demand"`
	ReorderLevel    int             `json:"reorder_level"`
	Verdict         Verdict         `json:"verdict"`
}

// DeltaFilter narrows Deltas. Zero values match everything; Limit keeps the
// most recent entries.
type DeltaFilter struct {
	ItemID string
	Source Source
	Window Window
	Limit  int
}

// Discrepancy is an item whose quantity does not match its replayed log.
type Discrepancy struct {
	ItemID   string `json:"item_id"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

// Items returns every item in creation order.
func (l *Ledger) Items() []StockItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]StockItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id].clone())
	}
	return out
}

func (l *Ledger) Item(itemID string) (StockItem, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[itemID]
	if !ok {
		return StockItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	return item.clone(), nil
}

// FindByCategory resolves a category name to its single item. Category is
// not a key, so a category shared by several items is rejected.
func (l *Ledger) FindByCategory(category string) (StockItem, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return StockItem{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var found *StockItem
	for _, id := range l.order {
		item := l.items[id]
		if !strings.EqualFold(item.Category, category) {
			continue
		}
		if found != nil {
			return StockItem{}, fmt.Errorf("%w: category %q matches several items", ErrInvalidInput, category)
		}
		found = item
	}
	if found == nil {
		return StockItem{}, fmt.Errorf("%w: category %q", ErrItemNotFound, category)
	}
	return found.clone(), nil
}

// QueryLowStock returns items at or below their reorder level, most urgent
// first, ties broken by item id.
func (l *Ledger) QueryLowStock() []StockItem {
	l.mu.RLock()
	out := make([]StockItem, 0)
	for _, id := range l.order {
		if item := l.items[id]; item.IsLowStock() {
			out = append(out, item.clone())
		}
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Shortfall(), out[j].Shortfall()
		if si != sj {
			return si > sj
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// ForecastDemand predicts demand for an item from purchase deltas the
// window accepts.
func (l *Ledger) ForecastDemand(itemID string, window Window) (Forecast, error) {
	if window == nil {
		return Forecast{}, fmt.Errorf("%w: window is required", ErrInvalidInput)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[itemID]
	if !ok {
		return Forecast{}, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	return l.forecastLocked(item, window), nil
}

// ForecastAll forecasts every item in creation order.
func (l *Ledger) ForecastAll(window Window) ([]Forecast, error) {
	if window == nil {
		return nil, fmt.Errorf("%w: window is required", ErrInvalidInput)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Forecast, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.forecastLocked(l.items[id], window))
	}
	return out, nil
}

func (l *Ledger) forecastLocked(item *StockItem, window Window) Forecast {
	inbound := 0
	for _, d := range l.deltas {
		if d.ItemID == item.ItemID && d.Source == SourcePurchase && window(d.AppliedAt) {
			inbound += d.Quantity
		}
	}

	predicted := decimal.NewFromInt(int64(inbound)).Mul(demandFactor)
	verdict := VerdictSufficient
	if predicted.LessThan(decimal.NewFromInt(int64(item.ReorderLevel))) {
		verdict = VerdictRestockRecommended
	}

	return Forecast{
		ItemID:          item.ItemID,
		Category:        item.Category,
		InboundQuantity: inbound,
		PredictedDemand: predicted,
		ReorderLevel:    item.ReorderLevel,
		Verdict:         verdict,
	}
}

// Valuation is the sum of quantity times unit price over all items.
func (l *Ledger) Valuation() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, id := range l.order {
		total = total.Add(l.items[id].Value())
	}
	return total
}

// Deltas returns logged deltas in application order.
func (l *Ledger) Deltas(f DeltaFilter) []StockDelta {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]StockDelta, 0)
	for _, d := range l.deltas {
		if f.ItemID != "" && d.ItemID != f.ItemID {
			continue
		}
		if f.Source != "" && d.Source != f.Source {
			continue
		}
		if f.Window != nil && !f.Window(d.AppliedAt) {
			continue
		}
		out = append(out, d)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// Delta returns the delta applied for (source, referenceID), if any.
func (l *Ledger) Delta(source Source, referenceID string) (StockDelta, bool) {
	referenceID = strings.TrimSpace(referenceID)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.applied[deltaKey{source: source, ref: referenceID}]; !ok {
		return StockDelta{}, false
	}
	for i := len(l.deltas) - 1; i >= 0; i-- {
		if d := l.deltas[i]; d.Source == source && d.ReferenceID == referenceID {
			return d, true
		}
	}
	return StockDelta{}, false
}

// AssignByWeight picks the item whose weight band fits a product of the
// given weight in grams: the smallest MaxWeight that is not below it.
// Anything heavier than every band goes to PremiumItemID.
func (l *Ledger) AssignByWeight(weight int) (StockItem, error) {
	if weight <= 0 {
		return StockItem{}, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var best *StockItem
	for _, id := range l.order {
		item := l.items[id]
		if item.MaxWeight == 0 || item.MaxWeight < weight {
			continue
		}
		if best == nil || item.MaxWeight < best.MaxWeight {
			best = item
		}
	}
	if best != nil {
		return best.clone(), nil
	}

	premium, ok := l.items[PremiumItemID]
	if !ok {
		return StockItem{}, fmt.Errorf("%w: no weight band holds %dg and %q is missing", ErrItemNotFound, weight, PremiumItemID)
	}
	return premium.clone(), nil
}

// RestockDue returns items whose scheduled restock date is on or before now.
func (l *Ledger) RestockDue(now time.Time) []StockItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]StockItem, 0)
	for _, id := range l.order {
		item := l.items[id]
		if item.RestockDate != nil && !item.RestockDate.After(now) {
			out = append(out, item.clone())
		}
	}
	return out
}

// Verify replays the delta log over opening quantities and reports every
// item whose stored quantity disagrees.
func (l *Ledger) Verify() []Discrepancy {
	l.mu.RLock()
	defer l.mu.RUnlock()

	expected := make(map[string]int, len(l.order))
	for _, id := range l.order {
		expected[id] = l.items[id].OpeningQuantity
	}
	for _, d := range l.deltas {
		expected[d.ItemID] += d.Quantity
	}

	var out []Discrepancy
	for _, id := range l.order {
		if got := l.items[id].Quantity; got != expected[id] {
			out = append(out, Discrepancy{ItemID: id, Expected: expected[id], Actual: got})
		}
	}
	return out
}
