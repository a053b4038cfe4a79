package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/cache"
	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/internal/service"

	"github.com/gofiber/fiber/v2"
)

var errBadDate = errors.New("dates must be RFC3339 or YYYY-MM-DD")

// DashboardHandler serves read-only aggregate views from the query cache
type DashboardHandler struct {
	service service.DashboardService
	cache   *cache.QueryCache
}

func NewDashboardHandler(s service.DashboardService, qc *cache.QueryCache) *DashboardHandler {
	return &DashboardHandler{service: s, cache: qc}
}

// GetProducts lists products, filtered by ?search= when given
func (h *DashboardHandler) GetProducts(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("search"))
	ctx := c.UserContext()
	products, err := cache.Load(h.cache, "products:"+strings.ToLower(term), func() ([]model.Product, error) {
		return h.service.FindByNameSubstring(ctx, term)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	ctx := c.UserContext()
	products, err := cache.Load(h.cache, "low-stock", func() ([]model.Product, error) {
		return h.service.FindLowStock(ctx)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *DashboardHandler) GetStockStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	statuses, err := cache.Load(h.cache, "stock-status", func() ([]service.ProductStatus, error) {
		return h.service.StockStatus(ctx)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(statuses)
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats, err := cache.Load(h.cache, "stats", func() (*service.InventoryStats, error) {
		return h.service.ComputeInventoryStats(ctx)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) GetSalesSummary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	summary, err := cache.Load(h.cache, "sales", func() (*service.SalesSummary, error) {
		return h.service.SalesSummary(ctx)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7, at most 365)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", strconv.Itoa(service.DefaultMovementDays)))
	if err != nil {
		days = service.DefaultMovementDays
	}
	days = service.ClampMovementDays(days)

	ctx := c.UserContext()
	data, err := cache.Load(h.cache, "movement:"+strconv.Itoa(days), func() ([]service.DailyMovement, error) {
		return h.service.StockMovement(ctx, days)
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetTransactions lists joined transactions, optionally bounded by ?from= and ?to=
func (h *DashboardHandler) GetTransactions(c *fiber.Ctx) error {
	from, err := parseBound(c.Query("from"), false)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	to, err := parseBound(c.Query("to"), true)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.UserContext()
	key := "transactions:" + c.Query("from") + "|" + c.Query("to")
	views, err := cache.Load(h.cache, key, func() ([]model.TransactionView, error) {
		return h.service.TransactionHistory(ctx, from, to)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// parseBound reads an RFC3339 timestamp or a calendar date. A date used as an
// upper bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errBadDate
	}
	if upper {
		return d.AddDate(0, 0, 1).Add(-time.Microsecond), nil
	}
	return d, nil
}
