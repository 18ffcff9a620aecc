package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService interface {
	RecordOrder(ctx context.Context, req *model.Order, actor Actor) error
	GetOrders(filter repository.OrderFilter) ([]model.Order, error)
	GetOrder(id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor Actor) (*model.Order, error)
	GetRevenue(period string) (decimal.Decimal, error)
	GetCategorySales(period string) ([]repository.CategorySales, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	ledger    LedgerService
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(oRepo repository.OrderRepository, ls LedgerService, log *zap.Logger) OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		orderRepo: oRepo,
		ledger:    ls,
		log:       log.With(zap.String("component", "order_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordOrder commits the sold quantity out of the ledger and stores the
// order. Orders the ledger cannot cover are rejected with
// ledger.ErrInsufficientStock and nothing is stored. A retry after a failed
// save stores the order against the sale already committed. A zero unit price
// takes the item's current price.
func (s *orderService) RecordOrder(ctx context.Context, req *model.Order, actor Actor) error {
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	if err := validate(req); err != nil {
		return err
	}

	if existing, err := s.orderRepo.FindByReference(req.Reference); err == nil && existing != nil {
		return fmt.Errorf("%w: order %s", ledger.ErrDuplicateDelta, req.Reference)
	}

	item, err := s.ledger.GetItem(req.ItemID)
	if err != nil {
		return err
	}

	if req.UnitPrice.IsZero() {
		req.UnitPrice = item.UnitPrice
	}
	if req.OrderDate.IsZero() {
		req.OrderDate = s.now()
	}
	req.Category = item.Category
	req.Status = model.OrderPending
	req.TotalPrice = req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	d, err := s.ledger.ApplyDelta(ctx, req.ItemID, -req.Quantity, ledger.SourceSaleCommit, req.Reference, actor)
	if errors.Is(err, ledger.ErrDuplicateDelta) {
		if prev, ok := orphanDelta(s.ledger, ledger.SourceSaleCommit, req.Reference, req.ItemID, -req.Quantity); ok {
			s.log.Warn("order_delta_reused", zap.String("reference", req.Reference), zap.String("delta_id", prev.ID.String()))
			d, err = prev, nil
		}
	}
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return err
	}
	persistErr := err

	req.ID = uuid.Nil
	req.DeltaID = d.ID
	req.CreatedBy = actor.ID
	req.UpdatedBy = actor.ID
	req.CreatedByUserID = &actor.ID
	if err := s.orderRepo.Create(req); err != nil {
		s.log.Error("order_record_failed",
			zap.String("reference", req.Reference),
			zap.String("delta_id", d.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("stock was committed but the order was not saved: %w", err)
	}
	return persistErr
}

func (s *orderService) GetOrders(filter repository.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ledger.ErrInvalidInput, filter.Status)
	}
	return s.orderRepo.FindAll(filter)
}

func (s *orderService) GetOrder(id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

// UpdateStatus moves an order to a new status. Cancelling returns the
// quantity to stock through a manual adjustment keyed by the order
// reference. A cancelled order is final.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor Actor) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ledger.ErrInvalidInput, status)
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if order.Status == model.OrderCancelled {
		return nil, fmt.Errorf("%w: order %s is cancelled", ledger.ErrInvalidInput, order.Reference)
	}

	var persistErr error
	if status == model.OrderCancelled {
		_, err := s.ledger.ApplyDelta(ctx, order.ItemID, order.Quantity, ledger.SourceManualAdjustment, "order-cancel:"+order.Reference, actor)
		switch {
		case errors.Is(err, ledger.ErrPersistence):
			persistErr = err
		case errors.Is(err, ledger.ErrDuplicateDelta):
			// stock already returned by an earlier attempt
		case err != nil:
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateStatus(id, status, actor.ID); err != nil {
		return nil, notFound(err, "order")
	}
	order.Status = status
	order.UpdatedBy = actor.ID

	s.log.Info("order_status_updated",
		zap.String("reference", order.Reference),
		zap.String("status", string(status)),
	)
	return order, persistErr
}

func (s *orderService) GetRevenue(period string) (decimal.Decimal, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return decimal.Zero, err
	}
	return s.orderRepo.GetRevenue(p.From, p.To)
}

func (s *orderService) GetCategorySales(period string) ([]repository.CategorySales, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetCategorySales(p.From, p.To)
}
