package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultMinQuantity is the reorder threshold used when none is given
	DefaultMinQuantity = 5
	// MoneyScale is the number of decimal places stored for price and cost
	MoneyScale = 2
)

type Product struct {
	BaseModel
	Name            string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	MinQuantity     int             `gorm:"not null" json:"min_quantity"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Cost            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	InitialQuantity int             `gorm:"not null" json:"initial_quantity"`
	CreatedDate     time.Time       `gorm:"not null" json:"created_date"`
	LastUpdated     time.Time       `gorm:"not null" json:"last_updated"`

	// Relasi
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// IsLowStock reports whether stock has fallen to or below the reorder threshold
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinQuantity
}

// StockValue is quantity * price
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// NewProduct is the input accepted when adding a product
type NewProduct struct {
	Name        string           `json:"name"`
	Quantity    int              `json:"quantity"`
	MinQuantity *int             `json:"min_quantity"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
}

// ProductDetails is the input accepted when editing a product. It has no
// quantity: stock changes only through stock movements.
type ProductDetails struct {
	Name        string           `json:"name"`
	MinQuantity *int             `json:"min_quantity"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
}

// ProductInput is the validated shape of product fields. Nil pointers mean
// the field was omitted.
type ProductInput struct {
	Name        string           `validate:"product_name"`
	Price       *decimal.Decimal `validate:"required,gt=0"`
	Quantity    *int             `validate:"omitempty,min=0"`
	MinQuantity *int             `validate:"omitempty,min=0"`
	Cost        *decimal.Decimal `validate:"omitempty,min=0"`
}

// StockLevel classifies a product's quantity against its threshold
type StockLevel string

const (
	StockOut    StockLevel = "OUT_OF_STOCK"
	StockLow    StockLevel = "LOW"
	StockNormal StockLevel = "NORMAL"
	StockHigh   StockLevel = "HIGH"
)

// Level returns the stock classification of the product
func (p *Product) Level() StockLevel {
	switch {
	case p.Quantity == 0:
		return StockOut
	case p.Quantity <= p.MinQuantity:
		return StockLow
	case p.Quantity <= p.MinQuantity*2:
		return StockNormal
	default:
		return StockHigh
	}
}
