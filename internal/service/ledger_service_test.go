package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/ws"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEvents(h *ws.Hub) []ws.Event {
	var out []ws.Event
	for {
		select {
		case msg := <-h.Broadcast:
			var ev ws.Event
			if err := json.Unmarshal(msg, &ev); err == nil {
				out = append(out, ev)
			}
		default:
			return out
		}
	}
}

func TestLedgerServiceCreateItem(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	item, err := tl.svc.CreateItem(ctx, &CreateItemRequest{
		ItemID: "tomatoes",
		Attributes: ledger.Attributes{
			Category:     "Tomatoes",
			Quantity:     12,
			ReorderLevel: 4,
			UnitPrice:    decimal.RequireFromString("1.50"),
		},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 12, item.Quantity)

	events := drainEvents(tl.hub)
	require.Len(t, events, 1)
	assert.Equal(t, "item_created", events[0].Action)
	assert.Equal(t, "Ann", events[0].User.Name)

	_, err = tl.svc.CreateItem(ctx, &CreateItemRequest{ItemID: "  "}, actor)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = tl.svc.CreateItem(ctx, &CreateItemRequest{ItemID: "tomatoes"}, actor)
	assert.ErrorIs(t, err, ledger.ErrDuplicateItem)
}

func TestLedgerServiceApplyDeltaRecordsMetrics(t *testing.T) {
	tl := newTestLedger(t)
	tl.item(t, "onions", 3, 1, "2")
	ctx := context.Background()

	_, err := tl.svc.ApplyDelta(ctx, "onions", 5, ledger.SourcePurchase, "p-1", actor)
	require.NoError(t, err)

	_, err = tl.svc.ApplyDelta(ctx, "onions", -50, ledger.SourceSaleCommit, "o-1", actor)
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	expected := `
# HELP farm_ledger_deltas_applied_total Stock deltas applied to the ledger.
# TYPE farm_ledger_deltas_applied_total counter
farm_ledger_deltas_applied_total{source="purchase"} 1
# HELP farm_ledger_deltas_rejected_total Stock deltas rejected by the ledger.
# TYPE farm_ledger_deltas_rejected_total counter
farm_ledger_deltas_rejected_total{code="INSUFFICIENT_STOCK",source="sale-commit"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(tl.reg, strings.NewReader(expected),
		"farm_ledger_deltas_applied_total", "farm_ledger_deltas_rejected_total"))

	// 8 onions at 2 each
	assert.NoError(t, testutil.GatherAndCompare(tl.reg, strings.NewReader(`
# HELP farm_ledger_inventory_valuation Sum of quantity times unit price over all items.
# TYPE farm_ledger_inventory_valuation gauge
farm_ledger_inventory_valuation 16
`), "farm_ledger_inventory_valuation"))

	events := drainEvents(tl.hub)
	require.Len(t, events, 1)
	assert.Equal(t, "delta_applied", events[0].Action)
	assert.Contains(t, events[0].Message, "added 5 units of 'onions'")
}

func TestLedgerServiceAdjustStock(t *testing.T) {
	tl := newTestLedger(t)
	tl.item(t, "garlic", 10, 2, "1")
	ctx := context.Background()

	d, err := tl.svc.AdjustStock(ctx, "garlic", &AdjustStockRequest{Quantity: -3, ReferenceID: "spoiled-1"}, actor)
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceManualAdjustment, d.Source)
	assert.Equal(t, 7, d.BalanceAfter)

	_, err = tl.svc.AdjustStock(ctx, "garlic", &AdjustStockRequest{Quantity: 0, ReferenceID: "x"}, actor)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = tl.svc.AdjustStock(ctx, "garlic", &AdjustStockRequest{Quantity: 1, ReferenceID: ""}, actor)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestLedgerServiceRestock(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	res, err := tl.svc.Restock(ctx, "", actor)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	// every seeded category sits at 0 with reorder level 5
	assert.Len(t, res.Applied, len(ledger.DefaultCategories))
	for _, d := range res.Applied {
		assert.Equal(t, 10, d.Quantity)
	}

	again, err := tl.svc.Restock(ctx, res.RunID, actor)
	require.NoError(t, err)
	assert.Empty(t, again.Applied)
	assert.Empty(t, tl.svc.Verify())
}

func TestLedgerServiceQueries(t *testing.T) {
	tl := newTestLedger(t)
	tl.item(t, "carrots", 2, 10, "0.5")
	ctx := context.Background()

	notices := tl.svc.SupplierNotifications()
	require.NotEmpty(t, notices)
	assert.Equal(t, "carrots", notices[0].ItemID)
	assert.Equal(t, 20, notices[0].SuggestedAmount)

	_, err := tl.svc.ApplyDelta(ctx, "carrots", 5, ledger.SourcePurchase, "p-1", actor)
	require.NoError(t, err)

	f, err := tl.svc.Forecast("carrots", PeriodWeekly)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4").Equal(f.PredictedDemand))
	assert.Equal(t, ledger.VerdictRestockRecommended, f.Verdict)

	_, err = tl.svc.Forecast("carrots", "yearly")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	all, err := tl.svc.ForecastAll("")
	require.NoError(t, err)
	assert.Len(t, all, len(ledger.DefaultCategories)+1)

	v := tl.svc.Valuation()
	assert.True(t, decimal.RequireFromString("3.5").Equal(v.Total))
	assert.Len(t, v.Items, len(ledger.DefaultCategories)+1)

	deltas := tl.svc.Deltas(ledger.DeltaFilter{ItemID: "carrots"})
	require.Len(t, deltas, 1)
	assert.Equal(t, "p-1", deltas[0].ReferenceID)
}

func TestLedgerServiceProduction(t *testing.T) {
	tl := newTestLedger(t)
	tl.item(t, "honey", 20, 5, "6")
	ctx := context.Background()

	item, err := tl.svc.AssignCategory(300)
	require.NoError(t, err)
	assert.Equal(t, "Large", item.Category)

	item, err = tl.svc.AssignCategory(5001)
	require.NoError(t, err)
	assert.Equal(t, "Premium", item.Category)

	_, err = tl.svc.AssignCategory(-1)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	quote, err := tl.svc.Cost("honey", decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.Equal(t, "honey", quote.Category)
	assert.True(t, decimal.NewFromInt(15).Equal(quote.Total), quote.Total.String())

	_, err = tl.svc.Cost("small", decimal.NewFromInt(3))
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.Contains(t, err.Error(), "price")

	_, err = tl.svc.Cost("honey", decimal.Zero)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = tl.svc.Cost("kale", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)

	check := tl.svc.PackagingReadiness()
	assert.False(t, check.Ready)
	require.Len(t, check.Alerts, len(ledger.DefaultCategories))
	assert.Equal(t, "Bulk Pack has low stock (0), minimum 5", check.Alerts[0].Message)

	_, err = tl.svc.Restock(ctx, "", actor)
	require.NoError(t, err)

	check = tl.svc.PackagingReadiness()
	assert.True(t, check.Ready)
	assert.Empty(t, check.Alerts)
}
