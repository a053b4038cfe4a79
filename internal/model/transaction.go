package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TxSale    TransactionType = "SALE"
	TxRestock TransactionType = "RESTOCK"
)

// Valid reports whether t is a known movement type
func (t TransactionType) Valid() bool {
	return t == TxSale || t == TxRestock
}

// Transaction is one append-only ledger entry. QuantityChange is negative for
// SALE and positive for RESTOCK.
type Transaction struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	TransactionType TransactionType `gorm:"type:varchar(10);not null" json:"transaction_type"`
	QuantityChange  int             `gorm:"not null" json:"quantity_change"`
	Timestamp       time.Time       `gorm:"column:occurred_at;not null;index" json:"timestamp"`
	CreatedBy       string          `gorm:"type:varchar(255)" json:"created_by"`
}

// Units is the magnitude of the movement
func (t *Transaction) Units() int {
	if t.QuantityChange < 0 {
		return -t.QuantityChange
	}
	return t.QuantityChange
}

// TransactionView is a Transaction joined with its product's name
type TransactionView struct {
	Transaction
	ProductName string `json:"product_name"`
}
