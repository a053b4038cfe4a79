package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultMovementDays is the window used when a caller asks for none
	DefaultMovementDays = 7
	// MaxMovementDays bounds the movement window
	MaxMovementDays = 365
	TopSellersLimit = 10
)

type InventoryStats struct {
	TotalProducts int             `json:"total_products"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalItems    int             `json:"total_items"`
	LowStockCount int             `json:"low_stock_count"`
}

type ProductStatus struct {
	ProductID   uuid.UUID        `json:"product_id"`
	Name        string           `json:"name"`
	Quantity    int              `json:"quantity"`
	MinQuantity int              `json:"min_quantity"`
	Level       model.StockLevel `json:"level"`
	StockValue  decimal.Decimal  `json:"stock_value"`
}

type SalesSummary struct {
	SaleCount        int             `json:"sale_count"`
	UnitsSold        int             `json:"units_sold"`
	ProductsSold     int             `json:"products_sold"`
	AverageSaleSize  decimal.Decimal `json:"average_sale_size"`
	EstimatedRevenue decimal.Decimal `json:"estimated_revenue"`
	TopSellers       []TopSeller     `json:"top_sellers"`
}

type TopSeller struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitsSold int       `json:"units_sold"`
}

type DailyMovement struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DashboardService interface {
	ComputeInventoryStats(ctx context.Context) (*InventoryStats, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	FindByNameSubstring(ctx context.Context, term string) ([]model.Product, error)
	StockStatus(ctx context.Context) ([]ProductStatus, error)
	SalesSummary(ctx context.Context) (*SalesSummary, error)
	StockMovement(ctx context.Context, days int) ([]DailyMovement, error)
	TransactionHistory(ctx context.Context, from, to time.Time) ([]model.TransactionView, error)
}

type dashboardService struct {
	store repository.Store
	settings
}

func NewDashboardService(store repository.Store, opts ...Option) DashboardService {
	return &dashboardService{store: store, settings: newSettings(opts)}
}

// ComputeInventoryStats derives totals from current product state only
func (s *dashboardService) ComputeInventoryStats(ctx context.Context) (*InventoryStats, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	stats := &InventoryStats{TotalProducts: len(products), TotalValue: decimal.Zero}
	for i := range products {
		p := &products[i]
		stats.TotalItems += p.Quantity
		stats.TotalValue = stats.TotalValue.Add(p.StockValue())
		if p.IsLowStock() {
			stats.LowStockCount++
		}
	}
	return stats, nil
}

func (s *dashboardService) FindLowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.Products().FindLowStock(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return nonNil(products), nil
}

// FindByNameSubstring matches names case-insensitively. A blank term matches
// every product.
func (s *dashboardService) FindByNameSubstring(ctx context.Context, term string) ([]model.Product, error) {
	var (
		products []model.Product
		err      error
	)
	if strings.TrimSpace(term) == "" {
		products, err = s.store.Products().FindAll(ctx)
	} else {
		products, err = s.store.Products().SearchByName(ctx, term)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return nonNil(products), nil
}

func (s *dashboardService) StockStatus(ctx context.Context) ([]ProductStatus, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	statuses := make([]ProductStatus, len(products))
	for i := range products {
		p := &products[i]
		statuses[i] = ProductStatus{
			ProductID:   p.ID,
			Name:        p.Name,
			Quantity:    p.Quantity,
			MinQuantity: p.MinQuantity,
			Level:       p.Level(),
			StockValue:  p.StockValue(),
		}
	}
	return statuses, nil
}

// SalesSummary totals every SALE in the ledger. Revenue is estimated at
// current prices. TopSellers ranks products by units sold, ties by name.
func (s *dashboardService) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	products, err := s.store.Products().FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	views, err := s.store.Transactions().FindAllWithProduct(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, storeErr(err)
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	summary := &SalesSummary{AverageSaleSize: decimal.Zero, EstimatedRevenue: decimal.Zero}
	sold := make(map[uuid.UUID]*TopSeller)
	for i := range views {
		t := &views[i]
		if t.TransactionType != model.TxSale {
			continue
		}
		units := t.Units()
		summary.SaleCount++
		summary.UnitsSold += units
		seller, ok := sold[t.ProductID]
		if !ok {
			seller = &TopSeller{ProductID: t.ProductID, Name: t.ProductName}
			sold[t.ProductID] = seller
		}
		seller.UnitsSold += units
		if price, ok := prices[t.ProductID]; ok {
			summary.EstimatedRevenue = summary.EstimatedRevenue.Add(price.Mul(decimal.NewFromInt(int64(units))))
		}
	}
	summary.ProductsSold = len(sold)
	summary.TopSellers = rankSellers(sold)
	if summary.SaleCount > 0 {
		summary.AverageSaleSize = decimal.NewFromInt(int64(summary.UnitsSold)).
			DivRound(decimal.NewFromInt(int64(summary.SaleCount)), 1)
	}
	return summary, nil
}

// StockMovement buckets units moved per UTC day over the last days days,
// today included, oldest first. Days without movement are present with zeros.
func (s *dashboardService) StockMovement(ctx context.Context, days int) ([]DailyMovement, error) {
	days = ClampMovementDays(days)
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	views, err := s.store.Transactions().FindAllWithProduct(ctx, start, time.Time{})
	if err != nil {
		return nil, storeErr(err)
	}

	movement := make([]DailyMovement, days)
	index := make(map[string]int, days)
	for i := range movement {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		movement[i].Date = date
		index[date] = i
	}
	for i := range views {
		t := &views[i]
		idx, ok := index[t.Timestamp.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch t.TransactionType {
		case model.TxSale:
			movement[idx].Outbound += t.Units()
		case model.TxRestock:
			movement[idx].Inbound += t.Units()
		}
	}
	return movement, nil
}

// ClampMovementDays maps a requested window onto 1..MaxMovementDays. Zero or
// negative values fall back to DefaultMovementDays.
func ClampMovementDays(days int) int {
	switch {
	case days <= 0:
		return DefaultMovementDays
	case days > MaxMovementDays:
		return MaxMovementDays
	}
	return days
}

// TransactionHistory lists joined transactions newest first. Zero bounds are open.
func (s *dashboardService) TransactionHistory(ctx context.Context, from, to time.Time) ([]model.TransactionView, error) {
	views, err := s.store.Transactions().FindAllWithProduct(ctx, from, to)
	if err != nil {
		return nil, storeErr(err)
	}
	if views == nil {
		views = []model.TransactionView{}
	}
	return views, nil
}

func nonNil(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	return products
}

func rankSellers(sold map[uuid.UUID]*TopSeller) []TopSeller {
	ranked := make([]TopSeller, 0, len(sold))
	for _, seller := range sold {
		ranked = append(ranked, *seller)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].UnitsSold != ranked[j].UnitsSold {
			return ranked[i].UnitsSold > ranked[j].UnitsSold
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > TopSellersLimit {
		ranked = ranked[:TopSellersLimit]
	}
	return ranked
}
