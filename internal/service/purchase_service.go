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

type PurchaseService interface {
	RecordPurchase(ctx context.Context, req *model.Purchase, actor Actor) error
	GetPurchases(filter repository.PurchaseFilter) ([]model.Purchase, error)
	GetTotalExpenses(period string) (decimal.Decimal, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	farmerRepo   repository.FarmerRepository
	ledger       LedgerService
	log          *zap.Logger
	now          func() time.Time
}

func NewPurchaseService(pRepo repository.PurchaseRepository, fRepo repository.FarmerRepository, ls LedgerService, log *zap.Logger) PurchaseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &purchaseService{
		purchaseRepo: pRepo,
		farmerRepo:   fRepo,
		ledger:       ls,
		log:          log.With(zap.String("component", "purchase_service")),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RecordPurchase adds the bought quantity to the ledger, then stores the
// purchase. The reference doubles as the delta reference, so replaying a
// stored purchase is rejected as a duplicate. A retry after a failed save
// stores the purchase against the delta already applied. A blank reference
// gets a fresh one.
func (s *purchaseService) RecordPurchase(ctx context.Context, req *model.Purchase, actor Actor) error {
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	if err := validate(req); err != nil {
		return err
	}

	if _, err := s.farmerRepo.FindByID(req.FarmerID); err != nil {
		return notFound(err, "farmer")
	}
	if existing, err := s.purchaseRepo.FindByReference(req.Reference); err == nil && existing != nil {
		return fmt.Errorf("%w: purchase %s", ledger.ErrDuplicateDelta, req.Reference)
	}

	if req.PurchaseDate.IsZero() {
		req.PurchaseDate = s.now()
	}
	req.TotalCost = req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	d, err := s.ledger.ApplyDelta(ctx, req.ItemID, req.Quantity, ledger.SourcePurchase, req.Reference, actor)
	if errors.Is(err, ledger.ErrDuplicateDelta) {
		// No purchase row exists for this reference, so the delta belongs to
		// an earlier attempt whose save failed.
		if prev, ok := orphanDelta(s.ledger, ledger.SourcePurchase, req.Reference, req.ItemID, req.Quantity); ok {
			s.log.Warn("purchase_delta_reused", zap.String("reference", req.Reference), zap.String("delta_id", prev.ID.String()))
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
	if err := s.purchaseRepo.Create(req); err != nil {
		s.log.Error("purchase_record_failed",
			zap.String("reference", req.Reference),
			zap.String("delta_id", d.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("stock was added but the purchase was not saved: %w", err)
	}
	return persistErr
}

func (s *purchaseService) GetPurchases(filter repository.PurchaseFilter) ([]model.Purchase, error) {
	return s.purchaseRepo.FindAll(filter)
}

func (s *purchaseService) GetTotalExpenses(period string) (decimal.Decimal, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return decimal.Zero, err
	}
	return s.purchaseRepo.GetTotalExpenses(p.From, p.To)
}

// orphanDelta returns the delta applied for (source, ref) when it moved the
// same item by the same signed quantity.
func orphanDelta(ls LedgerService, source ledger.Source, ref, itemID string, quantity int) (ledger.StockDelta, bool) {
	d, ok := ls.FindDelta(source, ref)
	if !ok || d.ItemID != itemID || d.Quantity != quantity {
		return ledger.StockDelta{}, false
	}
	return d, true
}
