package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderProcessed OrderStatus = "processed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is a customer sale. Recording one commits stock out of the ledger
// through a sale-commit delta keyed by Reference.
type Order struct {
	BaseModel
	Reference       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference" validate:"notblank,max=64"`
	CustomerDetails string          `gorm:"type:text;not null" json:"customer_details" validate:"notblank"`
	ItemID          string          `gorm:"type:varchar(100);not null;index" json:"item_id" validate:"notblank,max=100"`
	Category        string          `gorm:"type:varchar(100);index" json:"category"` // copied from the item at order time
	Quantity        int             `gorm:"not null" json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price" validate:"decimal_nonneg"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_price"`
	OrderDate       time.Time       `gorm:"not null;index" json:"order_date"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	DeltaID         uuid.UUID       `gorm:"type:uuid" json:"delta_id"`

	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
}
