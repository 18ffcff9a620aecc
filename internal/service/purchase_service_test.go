package service

import (
	"context"
	"errors"
	"testing"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPurchases(t *testing.T) (*testLedger, PurchaseService, FarmerService, *fakePurchaseRepo, uuid.UUID) {
	t.Helper()
	tl := newTestLedger(t)
	tl.item(t, "potatoes", 0, 5, "0.80")

	farmers := newFakeFarmerRepo()
	purchases := &fakePurchaseRepo{}
	fs := NewFarmerService(farmers, purchases)

	farmer := &model.Farmer{Name: "Ola", Location: "North Valley", ProduceTypes: "potatoes"}
	require.NoError(t, fs.CreateFarmer(farmer, actor))

	return tl, NewPurchaseService(purchases, farmers, tl.svc, nil), fs, purchases, farmer.ID
}

func TestRecordPurchaseAddsStock(t *testing.T) {
	tl, ps, _, repo, farmerID := setupPurchases(t)

	p := &model.Purchase{
		Reference: "PO-1",
		FarmerID:  farmerID,
		ItemID:    "potatoes",
		Quantity:  40,
		UnitPrice: decimal.RequireFromString("0.50"),
	}
	require.NoError(t, ps.RecordPurchase(context.Background(), p, actor))

	item, err := tl.ledger.Item("potatoes")
	require.NoError(t, err)
	assert.Equal(t, 40, item.Quantity)

	require.Len(t, repo.purchases, 1)
	stored := repo.purchases[0]
	assert.True(t, decimal.NewFromInt(20).Equal(stored.TotalCost))
	assert.NotEqual(t, uuid.Nil, stored.DeltaID)
	assert.False(t, stored.PurchaseDate.IsZero())
	assert.Equal(t, "user-1", *stored.CreatedByUserID)
}

func TestRecordPurchaseDuplicateReference(t *testing.T) {
	tl, ps, _, repo, farmerID := setupPurchases(t)
	ctx := context.Background()

	newPurchase := func() *model.Purchase {
		return &model.Purchase{Reference: "PO-7", FarmerID: farmerID, ItemID: "potatoes", Quantity: 10, UnitPrice: decimal.NewFromInt(1)}
	}
	require.NoError(t, ps.RecordPurchase(ctx, newPurchase(), actor))

	err := ps.RecordPurchase(ctx, newPurchase(), actor)
	assert.ErrorIs(t, err, ledger.ErrDuplicateDelta)

	item, _ := tl.ledger.Item("potatoes")
	assert.Equal(t, 10, item.Quantity)
	assert.Len(t, repo.purchases, 1)
}

func TestRecordPurchaseRejects(t *testing.T) {
	tl, ps, _, repo, farmerID := setupPurchases(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    model.Purchase
		want error
	}{
		{"unknown farmer", model.Purchase{FarmerID: uuid.New(), ItemID: "potatoes", Quantity: 1}, ErrNotFound},
		{"unknown item", model.Purchase{FarmerID: farmerID, ItemID: "kale", Quantity: 1}, ledger.ErrItemNotFound},
		{"zero quantity", model.Purchase{FarmerID: farmerID, ItemID: "potatoes"}, ledger.ErrInvalidInput},
		{"negative price", model.Purchase{FarmerID: farmerID, ItemID: "potatoes", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}, ledger.ErrInvalidInput},
		{"missing farmer", model.Purchase{ItemID: "potatoes", Quantity: 1}, ledger.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			assert.ErrorIs(t, ps.RecordPurchase(ctx, &p, actor), tt.want)
		})
	}

	item, _ := tl.ledger.Item("potatoes")
	assert.Equal(t, 0, item.Quantity)
	assert.Empty(t, repo.purchases)
}

func TestRecordPurchaseRepoFailureKeepsDelta(t *testing.T) {
	tl, ps, _, repo, farmerID := setupPurchases(t)
	repo.createErr = errors.New("db down")

	err := ps.RecordPurchase(context.Background(), &model.Purchase{
		Reference: "PO-9", FarmerID: farmerID, ItemID: "potatoes", Quantity: 3,
	}, actor)
	require.Error(t, err)

	item, _ := tl.ledger.Item("potatoes")
	assert.Equal(t, 3, item.Quantity)
	assert.Empty(t, tl.ledger.Verify())
}

func TestRecordPurchaseRetryAfterSaveFailure(t *testing.T) {
	tl, ps, _, repo, farmerID := setupPurchases(t)
	ctx := context.Background()
	newPurchase := func(qty int) *model.Purchase {
		return &model.Purchase{Reference: "PO-10", FarmerID: farmerID, ItemID: "potatoes", Quantity: qty, UnitPrice: decimal.NewFromInt(2)}
	}

	repo.createErr = errors.New("db down")
	require.Error(t, ps.RecordPurchase(ctx, newPurchase(6), actor))
	repo.createErr = nil

	// a different quantity under the same reference is not the same purchase
	assert.ErrorIs(t, ps.RecordPurchase(ctx, newPurchase(7), actor), ledger.ErrDuplicateDelta)
	assert.Empty(t, repo.purchases)

	p := newPurchase(6)
	require.NoError(t, ps.RecordPurchase(ctx, p, actor))

	item, _ := tl.ledger.Item("potatoes")
	assert.Equal(t, 6, item.Quantity)
	require.Len(t, tl.ledger.Deltas(ledger.DeltaFilter{Source: ledger.SourcePurchase}), 1)
	require.Len(t, repo.purchases, 1)
	d, ok := tl.ledger.Delta(ledger.SourcePurchase, "PO-10")
	require.True(t, ok)
	assert.Equal(t, d.ID, repo.purchases[0].DeltaID)
	assert.True(t, decimal.NewFromInt(12).Equal(repo.purchases[0].TotalCost))

	assert.ErrorIs(t, ps.RecordPurchase(ctx, newPurchase(6), actor), ledger.ErrDuplicateDelta)
	assert.Len(t, repo.purchases, 1)
}

func TestFarmerSummaryAndExpenses(t *testing.T) {
	_, ps, fs, _, farmerID := setupPurchases(t)
	ctx := context.Background()

	for i, qty := range []int{10, 30} {
		require.NoError(t, ps.RecordPurchase(ctx, &model.Purchase{
			Reference: []string{"A", "B"}[i],
			FarmerID:  farmerID,
			ItemID:    "potatoes",
			Quantity:  qty,
			UnitPrice: decimal.RequireFromString("0.25"),
		}, actor))
	}

	summary, err := fs.GetFarmerSummary(farmerID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Summary.PurchaseCount)
	assert.EqualValues(t, 40, summary.Summary.TotalQuantity)
	assert.True(t, decimal.NewFromInt(10).Equal(summary.Summary.TotalCost))
	assert.Len(t, summary.Purchases, 2)

	total, err := ps.GetTotalExpenses(PeriodDaily)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(total))

	list, err := ps.GetPurchases(repository.PurchaseFilter{FarmerID: &farmerID})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFarmerCRUD(t *testing.T) {
	farmers := newFakeFarmerRepo()
	fs := NewFarmerService(farmers, &fakePurchaseRepo{})

	f := &model.Farmer{Name: "Bea", Location: "Hill Farm", FarmSize: decimal.RequireFromString("12.5")}
	require.NoError(t, fs.CreateFarmer(f, actor))
	assert.Equal(t, "user-1", f.CreatedBy)

	assert.ErrorIs(t, fs.CreateFarmer(&model.Farmer{Name: " "}, actor), ledger.ErrInvalidInput)
	assert.ErrorIs(t, fs.CreateFarmer(&model.Farmer{Name: "X", FarmSize: decimal.NewFromInt(-1)}, actor), ledger.ErrInvalidInput)

	updated, err := fs.UpdateFarmer(f.ID, &model.Farmer{Name: "Bea", Location: "Lake Farm", ProduceTypes: "beans"}, actor)
	require.NoError(t, err)
	assert.Equal(t, "Lake Farm", updated.Location)

	found, err := fs.GetFarmers("beans")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = fs.UpdateFarmer(uuid.New(), &model.Farmer{Name: "Nobody"}, actor)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, fs.DeleteFarmer(f.ID, actor))
	assert.ErrorIs(t, fs.DeleteFarmer(f.ID, actor), ErrNotFound)
	_, err = fs.GetFarmer(f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
