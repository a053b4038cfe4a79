package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *model.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) FindByProductID(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("occurred_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindAllWithProduct(ctx context.Context, from, to time.Time) ([]model.TransactionView, error) {
	var views []model.TransactionView

	query := r.db.WithContext(ctx).
		Table("transactions AS t").
		Select("t.id, t.product_id, t.transaction_type, t.quantity_change, t.occurred_at, t.created_by, p.name AS product_name").
		Joins("JOIN products p ON p.id = t.product_id")

	if !from.IsZero() {
		query = query.Where("t.occurred_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("t.occurred_at <= ?", to)
	}

	err := query.Order("t.occurred_at DESC").Scan(&views).Error
	return views, err
}

func (r *transactionRepo) DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Transaction{})
	return res.RowsAffected, res.Error
}
