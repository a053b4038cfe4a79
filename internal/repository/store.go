package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/model"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a keyed record does not exist
var ErrNotFound = errors.New("record not found")

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate reads the product and holds it against concurrent
	// writers until the surrounding Atomic call returns.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	SearchByName(ctx context.Context, term string) ([]model.Product, error)
	UpdateDetails(ctx context.Context, product *model.Product) error
	UpdateStock(ctx context.Context, id uuid.UUID, newQuantity int, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	// FindAllWithProduct joins every transaction with its product name,
	// newest first. Zero from/to leave that side of the range open.
	FindAllWithProduct(ctx context.Context, from, to time.Time) ([]model.TransactionView, error)
	DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error)
}

// Store is the ledger capability set the inventory core depends on. Products
// and transactions reached through the Store passed to fn inside Atomic are
// written together or not at all.
type Store interface {
	Products() ProductRepository
	Transactions() TransactionRepository
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
