package repository

import (
	"time"

	"go-farm-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase list orderings
const (
	SortByDate     = "date"
	SortByQuantity = "quantity"
	SortByPrice    = "price"
)

type PurchaseFilter struct {
	FarmerID *uuid.UUID
	ItemID   string
	From     *time.Time
	To       *time.Time
	SortBy   string
}

// FarmerSummary aggregates everything bought from one farmer
type FarmerSummary struct {
	FarmerID      uuid.UUID       `json:"farmer_id"`
	PurchaseCount int64           `json:"purchase_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

type PurchaseRepository interface {
	Create(purchase *model.Purchase) error
	FindAll(filter PurchaseFilter) ([]model.Purchase, error)
	FindByReference(reference string) (*model.Purchase, error)
	GetFarmerSummary(farmerID uuid.UUID) (*FarmerSummary, error)
	GetTotalExpenses(from, to time.Time) (decimal.Decimal, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) Create(purchase *model.Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *purchaseRepo) FindAll(filter PurchaseFilter) ([]model.Purchase, error) {
	var purchases []model.Purchase
	q := r.db.Preload("Farmer")
	if filter.FarmerID != nil {
		q = q.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.From != nil {
		q = q.Where("purchase_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("purchase_date <= ?", *filter.To)
	}

	switch filter.SortBy {
	case SortByQuantity:
		q = q.Order("quantity DESC")
	case SortByPrice:
		q = q.Order("unit_price DESC")
	default:
		q = q.Order("purchase_date DESC")
	}

	err := q.Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) FindByReference(reference string) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.First(&purchase, "reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) GetFarmerSummary(farmerID uuid.UUID) (*FarmerSummary, error) {
	summary := FarmerSummary{FarmerID: farmerID}
	err := r.db.Model(&model.Purchase{}).
		Select("COUNT(*) AS purchase_count, COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(total_cost), 0) AS total_cost").
		Where("farmer_id = ?", farmerID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *purchaseRepo) GetTotalExpenses(from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(&model.Purchase{}).
		Select("COALESCE(SUM(total_cost), 0)").
		Where("purchase_date BETWEEN ? AND ?", from, to).
		Scan(&total).Error
	return total, err
}
