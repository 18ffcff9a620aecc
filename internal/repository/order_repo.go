package repository

import (
	"strings"
	"time"

	"go-farm-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderFilter narrows FindAll. Search matches customer details, category or
// status as a case-insensitive substring.
type OrderFilter struct {
	Status   model.OrderStatus
	Category string
	Search   string
	From     *time.Time
	To       *time.Time
}

// CategorySales is one row of the per-category sales report
type CategorySales struct {
	Category     string          `json:"category"`
	OrderCount   int64           `json:"order_count"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindAll(filter OrderFilter) ([]model.Order, error)
	FindByID(id uuid.UUID) (*model.Order, error)
	FindByReference(reference string) (*model.Order, error)
	UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error
	GetRevenue(from, to time.Time) (decimal.Decimal, error)
	GetCategorySales(from, to time.Time) ([]CategorySales, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepo) FindAll(filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.Order("order_date DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(customer_details) LIKE ? OR LOWER(category) LIKE ? OR LOWER(status) LIKE ?", like, like, like)
	}
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date <= ?", *filter.To)
	}
	err := q.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByReference(reference string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Where("reference = ?", reference).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	res := r.db.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetRevenue sums non-cancelled orders in the range
func (r *orderRepo) GetRevenue(from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(&model.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status <> ? AND order_date BETWEEN ? AND ?", model.OrderCancelled, from, to).
		Scan(&total).Error
	return total, err
}

func (r *orderRepo) GetCategorySales(from, to time.Time) ([]CategorySales, error) {
	var rows []CategorySales
	err := r.db.Model(&model.Order{}).
		Select(`
			category,
			COUNT(*) AS order_count,
			COALESCE(SUM(quantity), 0) AS quantity_sold,
			COALESCE(SUM(total_price), 0) AS revenue
		`).
		Where("status <> ? AND order_date BETWEEN ? AND ?", model.OrderCancelled, from, to).
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}
