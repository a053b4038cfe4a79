package handler

import (
	"math"
	"strings"

	"github.com/aliyusifov99/inventory-management/internal/cache"
	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// InventoryHandler serves the product write paths and per-product reads.
// Every successful write drops the shared query cache.
type InventoryHandler struct {
	service service.InventoryService
	cache   *cache.QueryCache
}

func NewInventoryHandler(s service.InventoryService, qc *cache.QueryCache) *InventoryHandler {
	return &InventoryHandler{service: s, cache: qc}
}

// StockMovementRequest is the body of POST /products/:id/movements
type StockMovementRequest struct {
	Type  string  `json:"type"`
	Units float64 `json:"units"`
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
}

// CreateProduct handles POST /api/v1/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.NewProduct
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	var req model.ProductDetails
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProductDetails(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate()

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate()

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// RecordMovement handles POST /api/v1/products/:id/movements
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	var req StockMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Units != math.Trunc(req.Units) || math.Abs(req.Units) > math.MaxInt32 {
		return respondError(c, service.ErrInvalidQuantity)
	}

	typ := model.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	result, err := h.service.ApplyStockMovement(c.UserContext(), id, typ, int(req.Units))
	if err != nil {
		return respondError(c, err)
	}
	h.cache.Invalidate()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock movement recorded", "data": result})
}

// GetProduct handles GET /api/v1/products/:id
func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	txn, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(txn)
}

// GetProductTransactions handles GET /api/v1/products/:id/transactions
func (h *InventoryHandler) GetProductTransactions(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	history, err := h.service.ProductTransactions(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

// Reconcile handles GET /api/v1/products/:id/reconcile
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return invalidID(c)
	}

	rec, err := h.service.Reconcile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}
