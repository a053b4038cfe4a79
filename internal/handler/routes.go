package handler

import (
	"github.com/aliyusifov99/inventory-management/internal/middleware"
	"github.com/aliyusifov99/inventory-management/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Routes groups the handlers mounted under /api/v1
type Routes struct {
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler
	// Signer is nil when authentication is disabled
	Signer *jwt.Signer
	// WriteLimit, when set, guards every mutating route
	WriteLimit fiber.Handler
}

func (r Routes) Mount(app *fiber.App) {
	app.Get("/health", r.Health.Check)

	api := app.Group("/api/v1", middleware.RequireAuth(r.Signer))
	write := func(privilege string) []fiber.Handler {
		chain := []fiber.Handler{middleware.RequirePrivilege(privilege)}
		if r.WriteLimit != nil {
			chain = append(chain, r.WriteLimit)
		}
		return chain
	}
	with := func(chain []fiber.Handler, h fiber.Handler) []fiber.Handler {
		return append(chain, h)
	}

	// Dashboard
	api.Get("/dashboard/stats", r.Dashboard.GetDashboardStats)
	api.Get("/dashboard/sales", r.Dashboard.GetSalesSummary)
	api.Get("/dashboard/stock-movement", r.Dashboard.GetStockMovement)

	// Products
	api.Get("/products", r.Dashboard.GetProducts)
	api.Get("/products/low-stock", r.Dashboard.GetLowStock)
	api.Get("/products/status", r.Dashboard.GetStockStatus)
	api.Get("/products/:id", r.Inventory.GetProduct)
	api.Post("/products", with(write(jwt.PrivProductCreate), r.Inventory.CreateProduct)...)
	api.Put("/products/:id", with(write(jwt.PrivProductUpdate), r.Inventory.UpdateProduct)...)
	api.Delete("/products/:id", with(write(jwt.PrivProductDelete), r.Inventory.DeleteProduct)...)

	// Stock movements and ledger
	api.Post("/products/:id/movements", with(write(jwt.PrivStockMove), r.Inventory.RecordMovement)...)
	api.Get("/products/:id/transactions", middleware.RequirePrivilege(jwt.PrivTransactionView), r.Inventory.GetProductTransactions)
	api.Get("/products/:id/reconcile", middleware.RequirePrivilege(jwt.PrivTransactionView), r.Inventory.Reconcile)
	api.Get("/transactions", middleware.RequirePrivilege(jwt.PrivTransactionView), r.Dashboard.GetTransactions)
	api.Get("/transactions/:id", middleware.RequirePrivilege(jwt.PrivTransactionView), r.Inventory.GetTransaction)
}
