package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source tags where a stock delta came from.
type Source string

const (
	SourcePurchase         Source = "purchase"
	SourceSaleReserve      Source = "sale-reserve"
	SourceSaleCommit       Source = "sale-commit"
	SourceManualAdjustment Source = "manual-adjustment"
	SourceRestock          Source = "restock"
)

// Sources lists every accepted source tag.
var Sources = []Source{
	SourcePurchase,
	SourceSaleReserve,
	SourceSaleCommit,
	SourceManualAdjustment,
	SourceRestock,
}

func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// allows reports whether a delta of the given sign is legal for the source.
// Inbound sources only add stock, sales only remove it, manual adjustments go
// either way.
func (s Source) allows(quantity int) bool {
	switch s {
	case SourcePurchase, SourceRestock:
		return quantity > 0
	case SourceSaleReserve, SourceSaleCommit:
		return quantity < 0
	default:
		return quantity != 0
	}
}

// MaxQuantity bounds every caller-supplied count on an item so restock
// amounts and balances stay far from integer overflow.
const MaxQuantity = 1_000_000_000

// StockItem is one tracked line of inventory, keyed by ItemID.
type StockItem struct {
	ItemID          string          `json:"item_id"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity_available"`
	OpeningQuantity int             `json:"opening_quantity"`
	ReorderLevel    int             `json:"reorder_level"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	MaxWeight       int             `json:"max_weight,omitempty"` // grams; 0 means no weight band
	RestockDate     *time.Time      `json:"restock_date,omitempty"`
	StorageLocation string          `json:"storage_location,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Shortfall is how far the item sits below its reorder level. Negative
// values mean the item is above the threshold.
func (i StockItem) Shortfall() int {
	return i.ReorderLevel - i.Quantity
}

func (i StockItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// RestockAmount is what one restock run adds to the item.
func (i StockItem) RestockAmount() int {
	return i.ReorderLevel * 2
}

// Value is quantity times unit price.
func (i StockItem) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i StockItem) clone() StockItem {
	c := i
	if i.RestockDate != nil {
		d := *i.RestockDate
		c.RestockDate = &d
	}
	return c
}

// Attributes are the caller-controlled fields of a StockItem. Quantity is
// only honoured on creation as the opening balance.
type Attributes struct {
	Category        string          `json:"category" validate:"max=100"`
	Quantity        int             `json:"quantity_available" validate:"gte=0,lte=1000000000"`
	ReorderLevel    int             `json:"reorder_level" validate:"gte=0,lte=1000000000"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"decimal_nonneg"`
	MaxWeight       int             `json:"max_weight" validate:"gte=0,lte=1000000000"`
	RestockDate     *time.Time      `json:"restock_date,omitempty"`
	StorageLocation string          `json:"storage_location" validate:"max=255"`
}

// StockDelta is a single applied change to an item's quantity.
type StockDelta struct {
	ID           uuid.UUID `json:"id"`
	ItemID       string    `json:"item_id"`
	Quantity     int       `json:"quantity"`
	Source       Source    `json:"source"`
	ReferenceID  string    `json:"reference_id"`
	BalanceAfter int       `json:"balance_after"`
	AppliedAt    time.Time `json:"applied_at"`
}

type deltaKey struct {
	source Source
	ref    string
}

func keyOf(d StockDelta) deltaKey {
	return deltaKey{source: d.Source, ref: d.ReferenceID}
}
