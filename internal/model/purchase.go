package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is produce bought from a farmer. Recording one adds stock to the
// ledger item through a purchase delta keyed by Reference.
type Purchase struct {
	BaseModel
	Reference    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference" validate:"notblank,max=64"`
	FarmerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"farmer_id" validate:"uuid_required"`
	Farmer       *Farmer         `json:"farmer,omitempty" validate:"-"`
	ItemID       string          `gorm:"type:varchar(100);not null;index" json:"item_id" validate:"notblank,max=100"`
	PurchaseDate time.Time       `gorm:"not null;index" json:"purchase_date"`
	Quantity     int             `gorm:"not null" json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price" validate:"decimal_nonneg"`
	TotalCost    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_cost"` // Snapshot price * quantity
	DeltaID      uuid.UUID       `gorm:"type:uuid" json:"delta_id"`

	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
}
