package repository

import (
	"context"

	"gorm.io/gorm"
)

// gormStore backs the ledger with a relational database (postgres or sqlite)
type gormStore struct {
	db           *gorm.DB
	products     ProductRepository
	transactions TransactionRepository
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:           db,
		products:     NewProductRepo(db),
		transactions: NewTransactionRepo(db),
	}
}

func (s *gormStore) Products() ProductRepository         { return s.products }
func (s *gormStore) Transactions() TransactionRepository { return s.transactions }

// Atomic runs fn in one database transaction; any error rolls everything back
func (s *gormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
