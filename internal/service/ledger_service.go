package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/ws"
	"go-farm-ledger/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Actor is the authenticated user behind a request
type Actor struct {
	ID    string
	Name  string
	Email string
}

// SystemActor is used for work nobody asked for explicitly
var SystemActor = Actor{ID: "system", Name: "system"}

func (a Actor) wsUser() *ws.User {
	return &ws.User{ID: a.ID, Name: a.Name, Email: a.Email}
}

type CreateItemRequest struct {
	ItemID string `json:"item_id" validate:"notblank,max=100"`
	ledger.Attributes
}

type AdjustStockRequest struct {
	Quantity    int    `json:"quantity" validate:"ne=0"`
	ReferenceID string `json:"reference_id" validate:"notblank,max=100"`
}

// SupplierNotice is one low-stock line handed to supplier management
type SupplierNotice struct {
	ItemID          string `json:"item_id"`
	Category        string `json:"category"`
	QuantityOnHand  int    `json:"quantity_on_hand"`
	ReorderLevel    int    `json:"reorder_level"`
	SuggestedAmount int    `json:"suggested_amount"`
}

// ValuationResult is the inventory value with its per item breakdown
type ValuationResult struct {
	Total decimal.Decimal     `json:"total"`
	Items []ItemValuationLine `json:"items"`
}

type ItemValuationLine struct {
	ItemID    string          `json:"item_id"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// CostQuote prices a quantity of one item at its current unit price
type CostQuote struct {
	ItemID    string          `json:"item_id"`
	Category  string          `json:"category"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// PackagingCheck tells whether stock allows packaging to start
type PackagingCheck struct {
	Ready  bool             `json:"ready"`
	Alerts []PackagingAlert `json:"alerts"`
}

type PackagingAlert struct {
	ItemID       string `json:"item_id"`
	Category     string `json:"category"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
	Message      string `json:"message"`
}

type LedgerService interface {
	CreateItem(ctx context.Context, req *CreateItemRequest, actor Actor) (ledger.StockItem, error)
	UpdateItem(ctx context.Context, itemID string, attrs ledger.Attributes, actor Actor) (ledger.StockItem, error)
	GetItems() []ledger.StockItem
	GetItem(itemID string) (ledger.StockItem, error)
	FindByCategory(category string) (ledger.StockItem, error)

	ApplyDelta(ctx context.Context, itemID string, quantity int, source ledger.Source, referenceID string, actor Actor) (ledger.StockDelta, error)
	AdjustStock(ctx context.Context, itemID string, req *AdjustStockRequest, actor Actor) (ledger.StockDelta, error)
	Restock(ctx context.Context, runID string, actor Actor) (ledger.RestockResult, error)

	LowStock() []ledger.StockItem
	SupplierNotifications() []SupplierNotice
	RestockDue() []ledger.StockItem
	Forecast(itemID, period string) (ledger.Forecast, error)
	ForecastAll(period string) ([]ledger.Forecast, error)
	Valuation() ValuationResult
	Deltas(filter ledger.DeltaFilter) []ledger.StockDelta
	FindDelta(source ledger.Source, referenceID string) (ledger.StockDelta, bool)
	Verify() []ledger.Discrepancy

	AssignCategory(weight int) (ledger.StockItem, error)
	Cost(itemID string, quantity decimal.Decimal) (CostQuote, error)
	PackagingReadiness() PackagingCheck

	// Reloaded is called after the ledger state was replaced from outside.
	Reloaded()
}

type ledgerService struct {
	ledger  *ledger.Ledger
	wsHub   *ws.Hub
	metrics *metrics.Ledger
	log     *zap.Logger
	now     func() time.Time
}

func NewLedgerService(l *ledger.Ledger, hub *ws.Hub, m *metrics.Ledger, log *zap.Logger) LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ledgerService{
		ledger:  l,
		wsHub:   hub,
		metrics: m,
		log:     log.With(zap.String("component", "ledger_service")),
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.refreshGauges()
	return s
}

func (s *ledgerService) CreateItem(ctx context.Context, req *CreateItemRequest, actor Actor) (ledger.StockItem, error) {
	if err := validate(req); err != nil {
		return ledger.StockItem{}, err
	}

	item, err := s.ledger.CreateItem(ctx, req.ItemID, req.Attributes)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return ledger.StockItem{}, err
	}

	s.refreshGauges()
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_created",
		Data:    item,
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s created item '%s'", actor.Name, item.ItemID),
	})
	return item, err
}

func (s *ledgerService) UpdateItem(ctx context.Context, itemID string, attrs ledger.Attributes, actor Actor) (ledger.StockItem, error) {
	item, err := s.ledger.UpdateItem(ctx, itemID, attrs)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return ledger.StockItem{}, err
	}

	s.refreshGauges()
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_updated",
		Data:    item,
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s updated item '%s'", actor.Name, item.ItemID),
	})
	return item, err
}

func (s *ledgerService) GetItems() []ledger.StockItem {
	return s.ledger.Items()
}

func (s *ledgerService) GetItem(itemID string) (ledger.StockItem, error) {
	return s.ledger.Item(itemID)
}

func (s *ledgerService) FindByCategory(category string) (ledger.StockItem, error) {
	return s.ledger.FindByCategory(category)
}

// ApplyDelta is the single path every collaborator uses to move stock. A
// returned error wrapping ledger.ErrPersistence comes with a valid delta.
func (s *ledgerService) ApplyDelta(ctx context.Context, itemID string, quantity int, source ledger.Source, referenceID string, actor Actor) (ledger.StockDelta, error) {
	d, err := s.ledger.ApplyDelta(ctx, itemID, quantity, source, referenceID)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		s.metrics.DeltaRejected(string(source), ledger.Code(err))
		s.log.Info("delta_rejected",
			zap.String("item_id", itemID),
			zap.Int("quantity", quantity),
			zap.String("source", string(source)),
			zap.String("reference_id", referenceID),
			zap.String("code", ledger.Code(err)),
		)
		return ledger.StockDelta{}, err
	}

	s.metrics.DeltaApplied(string(source))
	s.refreshGauges()
	s.publishDelta(d, actor)
	return d, err
}

func (s *ledgerService) AdjustStock(ctx context.Context, itemID string, req *AdjustStockRequest, actor Actor) (ledger.StockDelta, error) {
	if err := validate(req); err != nil {
		return ledger.StockDelta{}, err
	}
	return s.ApplyDelta(ctx, itemID, req.Quantity, ledger.SourceManualAdjustment, req.ReferenceID, actor)
}

// Restock runs a restock pass. An empty runID starts a fresh run.
func (s *ledgerService) Restock(ctx context.Context, runID string, actor Actor) (ledger.RestockResult, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		runID = uuid.NewString()
	}

	res, err := s.ledger.Restock(ctx, runID)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		s.metrics.DeltaRejected(string(ledger.SourceRestock), ledger.Code(err))
		return res, err
	}

	for range res.Applied {
		s.metrics.DeltaApplied(string(ledger.SourceRestock))
	}
	s.refreshGauges()
	s.log.Info("restock_completed",
		zap.String("run_id", runID),
		zap.Int("applied", len(res.Applied)),
		zap.Int("skipped", len(res.Skipped)),
	)
	if len(res.Applied) > 0 {
		s.wsHub.Publish(ws.Event{
			Type:    "stock_update",
			Action:  "restock_completed",
			Data:    res,
			User:    actor.wsUser(),
			Message: fmt.Sprintf("%s restocked %d items", actor.Name, len(res.Applied)),
		})
	}
	return res, err
}

func (s *ledgerService) LowStock() []ledger.StockItem {
	return s.ledger.QueryLowStock()
}

// SupplierNotifications lists low stock items with the amount a restock
// would order for each.
func (s *ledgerService) SupplierNotifications() []SupplierNotice {
	low := s.ledger.QueryLowStock()
	out := make([]SupplierNotice, 0, len(low))
	for _, item := range low {
		out = append(out, SupplierNotice{
			ItemID:          item.ItemID,
			Category:        item.Category,
			QuantityOnHand:  item.Quantity,
			ReorderLevel:    item.ReorderLevel,
			SuggestedAmount: item.ReorderLevel * 2,
		})
	}
	return out
}

func (s *ledgerService) RestockDue() []ledger.StockItem {
	return s.ledger.RestockDue(s.now())
}

func (s *ledgerService) Forecast(itemID, period string) (ledger.Forecast, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return ledger.Forecast{}, err
	}
	return s.ledger.ForecastDemand(itemID, p.Window)
}

func (s *ledgerService) ForecastAll(period string) ([]ledger.Forecast, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return nil, err
	}
	return s.ledger.ForecastAll(p.Window)
}

func (s *ledgerService) Valuation() ValuationResult {
	items := s.ledger.Items()
	res := ValuationResult{Total: decimal.Zero, Items: make([]ItemValuationLine, 0, len(items))}
	for _, item := range items {
		v := item.Value()
		res.Total = res.Total.Add(v)
		res.Items = append(res.Items, ItemValuationLine{
			ItemID:    item.ItemID,
			Category:  item.Category,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Value:     v,
		})
	}
	return res
}

func (s *ledgerService) Deltas(filter ledger.DeltaFilter) []ledger.StockDelta {
	return s.ledger.Deltas(filter)
}

func (s *ledgerService) FindDelta(source ledger.Source, referenceID string) (ledger.StockDelta, bool) {
	return s.ledger.Delta(source, referenceID)
}

// AssignCategory finds the item a product of weight grams is packed as
func (s *ledgerService) AssignCategory(weight int) (ledger.StockItem, error) {
	return s.ledger.AssignByWeight(weight)
}

// Cost prices quantity units of an item. Items without a price cannot be
// quoted.
func (s *ledgerService) Cost(itemID string, quantity decimal.Decimal) (CostQuote, error) {
	if !quantity.IsPositive() {
		return CostQuote{}, fmt.Errorf("%w: quantity must be positive", ledger.ErrInvalidInput)
	}
	item, err := s.ledger.Item(itemID)
	if err != nil {
		return CostQuote{}, err
	}
	if !item.UnitPrice.IsPositive() {
		return CostQuote{}, fmt.Errorf("%w: price of %q is not set", ledger.ErrInvalidInput, itemID)
	}
	return CostQuote{
		ItemID:    item.ItemID,
		Category:  item.Category,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
		Total:     item.UnitPrice.Mul(quantity),
	}, nil
}

// PackagingReadiness is ready when no item sits at or below its reorder
// level.
func (s *ledgerService) PackagingReadiness() PackagingCheck {
	low := s.ledger.QueryLowStock()
	check := PackagingCheck{Ready: len(low) == 0, Alerts: make([]PackagingAlert, 0, len(low))}
	for _, item := range low {
		check.Alerts = append(check.Alerts, PackagingAlert{
			ItemID:       item.ItemID,
			Category:     item.Category,
			Quantity:     item.Quantity,
			ReorderLevel: item.ReorderLevel,
			Message:      fmt.Sprintf("%s has low stock (%d), minimum %d", item.Category, item.Quantity, item.ReorderLevel),
		})
	}
	return check
}

func (s *ledgerService) Verify() []ledger.Discrepancy {
	out := s.ledger.Verify()
	if len(out) > 0 {
		s.log.Error("ledger_verify_failed", zap.Int("discrepancies", len(out)))
	}
	return out
}

func (s *ledgerService) Reloaded() {
	s.refreshGauges()
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "ledger_reloaded",
		Message: "inventory was changed by another process",
	})
}

func (s *ledgerService) publishDelta(d ledger.StockDelta, actor Actor) {
	verb := "added"
	qty := d.Quantity
	if qty < 0 {
		verb = "removed"
		qty = -qty
	}
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "delta_applied",
		Data:    d,
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s %s %d units of '%s' (%s)", actor.Name, verb, qty, d.ItemID, d.Source),
	})
}

func (s *ledgerService) refreshGauges() {
	if s.metrics == nil {
		return
	}
	v, _ := s.ledger.Valuation().Float64()
	s.metrics.Inventory(v, len(s.ledger.QueryLowStock()))
}
