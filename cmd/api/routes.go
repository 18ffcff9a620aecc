package main

import (
	"go-farm-ledger/internal/handler"
	"go-farm-ledger/internal/model"

	"github.com/gofiber/fiber/v2"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

// router mounts every API route. Handlers left nil belong to the database
// backed features and are skipped when running on the memory store.
type router struct {
	protected fiber.Router
	guard     func(privileges ...string) fiber.Handler

	inventory *handler.InventoryHandler
	dashboard *handler.DashboardHandler
	roles     *handler.RoleHandler
	farmers   *handler.FarmerHandler
	purchases *handler.PurchaseHandler
	orders    *handler.OrderHandler
	finance   *handler.FinanceHandler
	reports   *handler.ReportHandler
}

func (r *router) mount() {
	p, need := r.protected, r.guard

	// Dashboard Routes
	p.Get("/dashboard/stats", need(model.PrivDashboardView), r.dashboard.GetDashboardStats)
	p.Get("/dashboard/stock-movement", need(model.PrivDashboardView), r.dashboard.GetStockMovement)

	// Inventory Routes
	inv := r.inventory
	p.Get("/items", need(model.PrivInventoryView), inv.GetItems)
	p.Get("/items/low-stock", need(model.PrivInventoryView), inv.GetLowStock)
	p.Get("/items/restock-due", need(model.PrivInventoryView), inv.GetRestockDue)
	p.Get("/items/supplier-notifications", need(model.PrivInventoryView), inv.GetSupplierNotifications)
	p.Get("/items/forecasts", need(model.PrivInventoryView, model.PrivReportView), inv.GetForecasts)
	p.Get("/items/valuation", need(model.PrivInventoryView, model.PrivFinanceView), inv.GetValuation)
	p.Get("/items/assign-category", need(model.PrivInventoryView), inv.AssignCategory)
	p.Get("/items/:id", need(model.PrivInventoryView), inv.GetItem)
	p.Get("/items/:id/forecast", need(model.PrivInventoryView, model.PrivReportView), inv.GetForecast)
	p.Get("/items/:id/cost", need(model.PrivInventoryView, model.PrivFinanceView), inv.GetCost)
	p.Get("/packaging/readiness", need(model.PrivInventoryView), inv.GetPackagingReadiness)
	p.Post("/items", need(model.PrivInventoryCreate), inv.CreateItem)
	p.Put("/items/:id", need(model.PrivInventoryUpdate), inv.UpdateItem)
	p.Post("/items/:id/adjustments", need(model.PrivInventoryAdjust), inv.AdjustStock)
	p.Post("/restock", need(model.PrivInventoryRestock), inv.Restock)
	p.Get("/ledger/deltas", need(model.PrivInventoryView), inv.GetDeltas)
	p.Get("/ledger/verify", need(model.PrivInventoryView), inv.Verify)

	if r.roles != nil {
		p.Get("/roles", r.roles.GetRoles)
		p.Get("/privileges", r.roles.GetPrivileges)
	}

	if f := r.farmers; f != nil {
		p.Get("/farmers", need(model.PrivFarmerView), f.GetFarmers)
		p.Get("/farmers/:id", need(model.PrivFarmerView), f.GetFarmer)
		p.Get("/farmers/:id/summary", need(model.PrivFarmerView), f.GetFarmerSummary)
		p.Post("/farmers", need(model.PrivFarmerCreate), f.CreateFarmer)
		p.Put("/farmers/:id", need(model.PrivFarmerUpdate), f.UpdateFarmer)
		p.Delete("/farmers/:id", need(model.PrivFarmerDelete), f.DeleteFarmer)
	}

	if pu := r.purchases; pu != nil {
		p.Get("/purchases", need(model.PrivPurchaseView), pu.GetPurchases)
		p.Get("/purchases/expenses", need(model.PrivPurchaseView, model.PrivFinanceView), pu.GetExpenses)
		p.Post("/purchases", need(model.PrivPurchaseCreate), pu.CreatePurchase)
	}

	if o := r.orders; o != nil {
		p.Get("/orders", need(model.PrivOrderView), o.GetOrders)
		p.Get("/orders/revenue", need(model.PrivOrderView, model.PrivFinanceView), o.GetRevenue)
		p.Get("/orders/category-sales", need(model.PrivOrderView, model.PrivReportView), o.GetCategorySales)
		p.Get("/orders/:id", need(model.PrivOrderView), o.GetOrder)
		p.Post("/orders", need(model.PrivOrderCreate), o.CreateOrder)
		p.Put("/orders/:id/status", need(model.PrivOrderUpdate), o.UpdateStatus)
	}

	if f := r.finance; f != nil {
		p.Get("/finance/summary", need(model.PrivFinanceView), f.GetSummary)
		p.Post("/finance/net-income", need(model.PrivFinanceView), f.NetIncome)
		p.Post("/finance/tax", need(model.PrivFinanceView), f.Tax)
		p.Post("/finance/net-profit", need(model.PrivFinanceView), f.NetProfit)
	}

	if r.reports != nil {
		p.Get("/reports", need(model.PrivReportView), r.reports.GetReport)
	}
}
