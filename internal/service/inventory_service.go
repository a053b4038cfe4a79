package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/events"
	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error)
	UpdateProductDetails(ctx context.Context, id uuid.UUID, in model.ProductDetails) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ApplyStockMovement(ctx context.Context, id uuid.UUID, typ model.TransactionType, units int) (*StockMovementResult, error)
	ProductTransactions(ctx context.Context, id uuid.UUID) (*ProductHistory, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]Reconciliation, error)
}

type StockMovementResult struct {
	NewQuantity int               `json:"new_quantity"`
	Transaction model.Transaction `json:"transaction"`
}

type HistorySummary struct {
	Sales          int `json:"sales"`
	Restocks       int `json:"restocks"`
	UnitsSold      int `json:"units_sold"`
	UnitsRestocked int `json:"units_restocked"`
}

type ProductHistory struct {
	Product      model.Product       `json:"product"`
	Transactions []model.Transaction `json:"transactions"`
	Summary      HistorySummary      `json:"summary"`
}

// Reconciliation compares a product's quantity with the balance its ledger
// reconstructs
type Reconciliation struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	InitialQuantity int       `json:"initial_quantity"`
	LedgerSum       int       `json:"ledger_sum"`
	Quantity        int       `json:"quantity"`
	Balanced        bool      `json:"balanced"`
}

func newReconciliation(p model.Product, txns []model.Transaction) Reconciliation {
	sum := 0
	for _, t := range txns {
		sum += t.QuantityChange
	}
	return Reconciliation{
		ProductID:       p.ID,
		ProductName:     p.Name,
		InitialQuantity: p.InitialQuantity,
		LedgerSum:       sum,
		Quantity:        p.Quantity,
		Balanced:        p.InitialQuantity+sum == p.Quantity,
	}
}

type inventoryService struct {
	store     repository.Store
	publisher events.Publisher
	settings
}

func NewInventoryService(store repository.Store, publisher events.Publisher, opts ...Option) InventoryService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &inventoryService{
		store:     store,
		publisher: publisher,
		settings:  newSettings(opts),
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "product.create")
	defer span.End()

	quantity := in.Quantity
	if err := validationErr(ValidateProduct(in.Name, in.Price, &quantity, in.MinQuantity, in.Cost)); err != nil {
		return nil, err
	}

	now := s.now()
	product := &model.Product{
		Name:            strings.TrimSpace(in.Name),
		Quantity:        in.Quantity,
		MinQuantity:     model.DefaultMinQuantity,
		Price:           *in.Price,
		Cost:            decimal.Zero,
		InitialQuantity: in.Quantity,
		CreatedDate:     now,
		LastUpdated:     now,
	}
	if in.MinQuantity != nil {
		product.MinQuantity = *in.MinQuantity
	}
	if in.Cost != nil {
		product.Cost = *in.Cost
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fail(span, storeErr(err))
	}
	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
		"quantity":   product.Quantity,
	}).Info("Product created")

	s.publish(ctx, productEvent(events.KindProductCreated, product, ActorFrom(ctx), now))
	return product, nil
}

func (s *inventoryService) UpdateProductDetails(ctx context.Context, id uuid.UUID, in model.ProductDetails) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "product.update", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	if err := validationErr(ValidateProduct(in.Name, in.Price, nil, in.MinQuantity, in.Cost)); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		existing, err := tx.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err)
		}

		existing.Name = strings.TrimSpace(in.Name)
		existing.Price = *in.Price
		if in.MinQuantity != nil {
			existing.MinQuantity = *in.MinQuantity
		}
		if in.Cost != nil {
			existing.Cost = *in.Cost
		}
		existing.LastUpdated = s.now()

		if err := tx.Products().UpdateDetails(ctx, existing); err != nil {
			return storeErr(err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, fail(span, passThrough(err))
	}

	s.logger.WithField("product_id", id).Info("Product details updated")
	s.publish(ctx, productEvent(events.KindProductUpdated, updated, ActorFrom(ctx), updated.LastUpdated))
	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "product.delete", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	var deleted *model.Product
	var removed int64
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		existing, err := tx.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		// Ledger entries go first so none is ever left pointing at a missing product
		if removed, err = tx.Transactions().DeleteByProductID(ctx, id); err != nil {
			return storeErr(err)
		}
		if err := tx.Products().Delete(ctx, id); err != nil {
			return storeErr(err)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return fail(span, passThrough(err))
	}

	s.logger.WithFields(logrus.Fields{
		"product_id":           id,
		"transactions_removed": removed,
	}).Info("Product deleted")

	deleted.Quantity = 0
	s.publish(ctx, productEvent(events.KindProductDeleted, deleted, ActorFrom(ctx), s.now()))
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return product, nil
}

func (s *inventoryService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.store.Transactions().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return txn, nil
}

// ApplyStockMovement records one SALE or RESTOCK. The stock update and its
// ledger entry are written together, with the product row held until both land.
func (s *inventoryService) ApplyStockMovement(ctx context.Context, id uuid.UUID, typ model.TransactionType, units int) (*StockMovementResult, error) {
	ctx, span := tracer.Start(ctx, "stock.move", trace.WithAttributes(
		attribute.String("product.id", id.String()),
		attribute.String("transaction.type", string(typ)),
		attribute.Int("transaction.units", units),
	))
	defer span.End()

	actor := ActorFrom(ctx)
	var result *StockMovementResult
	var product *model.Product

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		p, err := tx.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		if units <= 0 {
			return ErrInvalidQuantity
		}

		var delta int
		switch typ {
		case model.TxSale:
			delta = -units
		case model.TxRestock:
			delta = units
		default:
			return ErrInvalidTransactionType
		}

		if typ == model.TxSale && units > p.Quantity {
			return &InsufficientStockError{Available: p.Quantity, Requested: units}
		}

		newQuantity := p.Quantity + delta
		now := s.now()
		if err := tx.Products().UpdateStock(ctx, p.ID, newQuantity, now); err != nil {
			return storeErr(err)
		}

		txn := model.Transaction{
			ProductID:       p.ID,
			TransactionType: typ,
			QuantityChange:  delta,
			Timestamp:       now,
			CreatedBy:       actor,
		}
		if err := tx.Transactions().Create(ctx, &txn); err != nil {
			return storeErr(err)
		}

		p.Quantity = newQuantity
		p.LastUpdated = now
		product = p
		result = &StockMovementResult{NewQuantity: newQuantity, Transaction: txn}
		return nil
	})
	if err != nil {
		err = passThrough(err)
		s.logger.WithFields(logrus.Fields{
			"product_id": id,
			"type":       typ,
			"units":      units,
		}).WithError(err).Warn("Stock movement rejected")
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Int("product.quantity", result.NewQuantity))
	s.logger.WithFields(logrus.Fields{
		"product_id":     id,
		"type":           typ,
		"units":          units,
		"new_quantity":   result.NewQuantity,
		"transaction_id": result.Transaction.ID,
		"actor":          actor,
	}).Info("Stock movement recorded")

	txnID := result.Transaction.ID
	s.publish(ctx, events.Event{
		Kind:            events.KindStockMoved,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        result.NewQuantity,
		TransactionID:   &txnID,
		TransactionType: typ,
		QuantityChange:  result.Transaction.QuantityChange,
		Actor:           actor,
		OccurredAt:      result.Transaction.Timestamp,
	})
	return result, nil
}

func (s *inventoryService) ProductTransactions(ctx context.Context, id uuid.UUID) (*ProductHistory, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	txns, err := s.store.Transactions().FindByProductID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	history := &ProductHistory{Product: *product, Transactions: txns}
	if history.Transactions == nil {
		history.Transactions = []model.Transaction{}
	}
	for _, t := range txns {
		switch t.TransactionType {
		case model.TxSale:
			history.Summary.Sales++
			history.Summary.UnitsSold += t.Units()
		case model.TxRestock:
			history.Summary.Restocks++
			history.Summary.UnitsRestocked += t.Units()
		}
	}
	return history, nil
}

func (s *inventoryService) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	var rec Reconciliation
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		product, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		txns, err := tx.Transactions().FindByProductID(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		rec = newReconciliation(*product, txns)
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return &rec, nil
}

// ReconcileAll checks every product, in name order, against its ledger
func (s *inventoryService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	ctx, span := tracer.Start(ctx, "ledger.reconcile")
	defer span.End()

	var recs []Reconciliation
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		products, err := tx.Products().FindAll(ctx)
		if err != nil {
			return storeErr(err)
		}
		views, err := tx.Transactions().FindAllWithProduct(ctx, time.Time{}, time.Time{})
		if err != nil {
			return storeErr(err)
		}

		byProduct := make(map[uuid.UUID][]model.Transaction, len(products))
		for _, v := range views {
			byProduct[v.ProductID] = append(byProduct[v.ProductID], v.Transaction)
		}
		recs = make([]Reconciliation, 0, len(products))
		for _, p := range products {
			recs = append(recs, newReconciliation(p, byProduct[p.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, passThrough(err))
	}

	for _, r := range recs {
		if !r.Balanced {
			s.logger.WithFields(logrus.Fields{
				"product_id": r.ProductID,
				"expected":   r.InitialQuantity + r.LedgerSum,
				"quantity":   r.Quantity,
			}).Error("Ledger out of balance")
		}
	}
	return recs, nil
}

// publish never fails the caller: the change it reports is already committed
func (s *inventoryService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.WithFields(logrus.Fields{
			"kind":       evt.Kind,
			"product_id": evt.ProductID,
		}).WithError(err).Warn("Failed to publish event")
	}
}

func productEvent(kind events.Kind, p *model.Product, actor string, at time.Time) events.Event {
	return events.Event{
		Kind:        kind,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    p.Quantity,
		Actor:       actor,
		OccurredAt:  at,
	}
}

// fail records err on span unless it is an expected business rejection
func fail(span trace.Span, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("inventory.rejected", err.Error()))
	}
	return err
}
