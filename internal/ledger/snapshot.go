package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

const snapshotVersion = 1

type snapshotDoc struct {
	Version int          `json:"version"`
	Items   []StockItem  `json:"items"`
	Deltas  []StockDelta `json:"deltas"`
}

type state struct {
	items   map[string]*StockItem
	order   []string
	deltas  []StockDelta
	applied map[deltaKey]struct{}
}

// Snapshot serialises the full item map and delta log.
func (l *Ledger) Snapshot() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.encodeLocked()
}

// Restore replaces the in-memory state from a snapshot without persisting it.
func (l *Ledger) Restore(data []byte) error {
	st, err := decode(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.swapLocked(st)
	return nil
}

func (l *Ledger) encodeLocked() ([]byte, error) {
	doc := snapshotDoc{
		Version: snapshotVersion,
		Items:   make([]StockItem, 0, len(l.order)),
		Deltas:  l.deltas,
	}
	if doc.Deltas == nil {
		doc.Deltas = []StockDelta{}
	}
	for _, id := range l.order {
		doc.Items = append(doc.Items, *l.items[id])
	}
	return json.Marshal(doc)
}

// decode parses and checks a snapshot. It never returns a partially built state.
func decode(data []byte) (*state, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", ErrInvalidInput, err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d not supported", ErrInvalidInput, doc.Version)
	}

	st := &state{
		items:   make(map[string]*StockItem, len(doc.Items)),
		order:   make([]string, 0, len(doc.Items)),
		deltas:  doc.Deltas,
		applied: make(map[deltaKey]struct{}, len(doc.Deltas)),
	}
	for i := range doc.Items {
		item := doc.Items[i]
		switch {
		case strings.TrimSpace(item.ItemID) == "":
			return nil, fmt.Errorf("%w: snapshot item %d has no id", ErrInvalidInput, i)
		case item.Quantity < 0 || item.ReorderLevel < 0 || item.OpeningQuantity < 0 || item.MaxWeight < 0 || item.UnitPrice.IsNegative():
			return nil, fmt.Errorf("%w: snapshot item %q has negative fields", ErrInvalidInput, item.ItemID)
		case item.ReorderLevel > MaxQuantity || item.MaxWeight > MaxQuantity:
			return nil, fmt.Errorf("%w: snapshot item %q exceeds %d", ErrInvalidInput, item.ItemID, MaxQuantity)
		}
		if _, dup := st.items[item.ItemID]; dup {
			return nil, fmt.Errorf("%w: snapshot item %q repeated", ErrInvalidInput, item.ItemID)
		}
		st.items[item.ItemID] = &item
		st.order = append(st.order, item.ItemID)
	}
	for _, d := range doc.Deltas {
		if _, ok := st.items[d.ItemID]; !ok {
			return nil, fmt.Errorf("%w: snapshot delta %s references unknown item %q", ErrInvalidInput, d.ID, d.ItemID)
		}
		k := keyOf(d)
		if _, dup := st.applied[k]; dup {
			return nil, fmt.Errorf("%w: snapshot delta %s/%s repeated", ErrInvalidInput, d.Source, d.ReferenceID)
		}
		st.applied[k] = struct{}{}
	}
	if len(st.deltas) == 0 {
		st.deltas = nil
	}
	return st, nil
}
