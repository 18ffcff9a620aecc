package model

import "github.com/shopspring/decimal"

// Farmer is a supplier we buy produce from
type Farmer struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;index" json:"name" validate:"notblank,max=255"`
	Contact      string          `gorm:"type:varchar(100)" json:"contact" validate:"max=100"`
	Location     string          `gorm:"type:varchar(255);index" json:"location" validate:"max=255"`
	FarmSize     decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"farm_size" validate:"decimal_nonneg"` // hectares
	ProduceTypes string          `gorm:"type:varchar(255)" json:"produce_types" validate:"max=255"`

	Purchases []Purchase `json:"purchases,omitempty" validate:"-"`
}
