package events

import (
	"context"
	"errors"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/model"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProductCreated Kind = "product.created"
	KindProductUpdated Kind = "product.updated"
	KindProductDeleted Kind = "product.deleted"
	KindStockMoved     Kind = "stock.moved"
)

// Event describes a committed ledger change
type Event struct {
	Kind            Kind                  `json:"kind"`
	ProductID       uuid.UUID             `json:"product_id"`
	ProductName     string                `json:"product_name"`
	Quantity        int                   `json:"quantity"`
	TransactionID   *uuid.UUID            `json:"transaction_id,omitempty"`
	TransactionType model.TransactionType `json:"transaction_type,omitempty"`
	QuantityChange  int                   `json:"quantity_change,omitempty"`
	Actor           string                `json:"actor"`
	OccurredAt      time.Time             `json:"occurred_at"`
}

// Publisher delivers events after the change they describe has been committed
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout publishes every event to each of its publishers
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var err error
	for _, p := range f {
		err = errors.Join(err, p.Publish(ctx, evt))
	}
	return err
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
