package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/events"
	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createWidget(t *testing.T, f *fixture, qty int) *model.Product {
	t.Helper()
	p, err := f.inventory.CreateProduct(context.Background(), model.NewProduct{
		Name:        "Widget",
		Quantity:    qty,
		MinQuantity: intp(5),
		Price:       dec("9.99"),
		Cost:        dec("4.00"),
	})
	require.NoError(t, err)
	return p
}

func TestInventoryService(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateRoundTrip", func(t *testing.T) { testCreateRoundTrip(t, newFixture(t, open(t))) })
			t.Run("CreateDefaults", func(t *testing.T) { testCreateDefaults(t, newFixture(t, open(t))) })
			t.Run("CreateRejectsInvalid", func(t *testing.T) { testCreateRejectsInvalid(t, newFixture(t, open(t))) })
			t.Run("SaleToZero", func(t *testing.T) { testSaleToZero(t, newFixture(t, open(t))) })
			t.Run("OversellRejected", func(t *testing.T) { testOversellRejected(t, newFixture(t, open(t))) })
			t.Run("InvalidMovements", func(t *testing.T) { testInvalidMovements(t, newFixture(t, open(t))) })
			t.Run("Reconciliation", func(t *testing.T) { testReconciliation(t, newFixture(t, open(t))) })
			t.Run("UpdateDetails", func(t *testing.T) { testUpdateDetails(t, newFixture(t, open(t))) })
			t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newFixture(t, open(t))) })
			t.Run("ProductTransactions", func(t *testing.T) { testProductTransactions(t, newFixture(t, open(t))) })
			t.Run("ConcurrentSales", func(t *testing.T) { testConcurrentSales(t, newFixture(t, open(t))) })
		})
	}
}

func testCreateRoundTrip(t *testing.T, f *fixture) {
	ctx := context.Background()
	created := createWidget(t, f, 10)

	got, err := f.inventory.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")), got.Price.String())
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("4")))
	assert.True(t, got.CreatedDate.Equal(got.LastUpdated))
	assert.True(t, got.CreatedDate.Equal(epoch))
	assert.Equal(t, 10, got.InitialQuantity)
	assert.Equal(t, []events.Kind{events.KindProductCreated}, f.publisher.kinds())
}

func testCreateDefaults(t *testing.T, f *fixture) {
	p, err := f.inventory.CreateProduct(context.Background(), model.NewProduct{
		Name:     "  Bolt  ",
		Quantity: 0,
		Price:    dec("0.10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", p.Name)
	assert.Equal(t, model.DefaultMinQuantity, p.MinQuantity)
	assert.True(t, p.Cost.IsZero())

	zero, err := f.inventory.CreateProduct(context.Background(), model.NewProduct{
		Name:        "Nut",
		MinQuantity: intp(0),
		Price:       dec("1"),
	})
	require.NoError(t, err)
	got, err := f.inventory.GetProduct(context.Background(), zero.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MinQuantity)
}

func testCreateRejectsInvalid(t *testing.T, f *fixture) {
	_, err := f.inventory.CreateProduct(context.Background(), model.NewProduct{
		Name:     "x",
		Quantity: -3,
		Price:    dec("0"),
	})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)

	_, err = f.inventory.CreateProduct(context.Background(), model.NewProduct{
		Name:  "Widget",
		Price: dec("9.999"),
	})
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.ErrorIs(t, verr.Fields[0], ErrTooPrecise)

	products, err := f.dashboard.FindByNameSubstring(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Empty(t, f.publisher.kinds())
}

func testSaleToZero(t *testing.T, f *fixture) {
	ctx := WithActor(context.Background(), "cashier")
	p := createWidget(t, f, 10)

	res, err := f.inventory.ApplyStockMovement(ctx, p.ID, model.TxSale, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewQuantity)
	assert.Equal(t, -10, res.Transaction.QuantityChange)
	assert.NotEqual(t, uuid.Nil, res.Transaction.ID)
	assert.Equal(t, "cashier", res.Transaction.CreatedBy)

	history, err := f.inventory.ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, -10, history.Transactions[0].QuantityChange)
	assert.Equal(t, 0, history.Product.Quantity)
	assert.True(t, history.Product.LastUpdated.Equal(res.Transaction.Timestamp))
	assert.True(t, history.Product.LastUpdated.After(history.Product.CreatedDate))

	require.Len(t, f.publisher.events, 2)
	moved := f.publisher.events[1]
	assert.Equal(t, events.KindStockMoved, moved.Kind)
	assert.Equal(t, 0, moved.Quantity)
	assert.Equal(t, "cashier", moved.Actor)
	require.NotNil(t, moved.TransactionID)
	assert.Equal(t, res.Transaction.ID, *moved.TransactionID)
}

func testOversellRejected(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 5)

	_, err := f.inventory.ApplyStockMovement(ctx, p.ID, model.TxSale, 6)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	got, err := f.inventory.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.True(t, got.LastUpdated.Equal(p.LastUpdated))

	history, err := f.inventory.ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Transactions)
	assert.Equal(t, []events.Kind{events.KindProductCreated}, f.publisher.kinds())
}

func testInvalidMovements(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 5)

	_, err := f.inventory.ApplyStockMovement(ctx, uuid.New(), model.TxRestock, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// A missing product is reported before the amount is checked
	_, err = f.inventory.ApplyStockMovement(ctx, uuid.New(), model.TxSale, 0)
	assert.ErrorIs(t, err, ErrProductNotFound)

	for _, units := range []int{0, -4} {
		_, err = f.inventory.ApplyStockMovement(ctx, p.ID, model.TxRestock, units)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	_, err = f.inventory.ApplyStockMovement(ctx, p.ID, model.TransactionType("RETURN"), 1)
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	res, err := f.inventory.ApplyStockMovement(ctx, p.ID, model.TxRestock, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 1_000_005, res.NewQuantity)
	assert.Equal(t, SystemActor, res.Transaction.CreatedBy)
}

func testReconciliation(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 7)
	other, err := f.inventory.CreateProduct(ctx, model.NewProduct{Name: "Gadget", Quantity: 2, Price: dec("3")})
	require.NoError(t, err)

	moves := []struct {
		typ   model.TransactionType
		units int
	}{
		{model.TxSale, 3}, {model.TxRestock, 10}, {model.TxSale, 20}, {model.TxSale, 14}, {model.TxRestock, 1},
	}
	for _, m := range moves {
		_, _ = f.inventory.ApplyStockMovement(ctx, p.ID, m.typ, m.units)
	}
	_, err = f.inventory.ApplyStockMovement(ctx, other.ID, model.TxSale, 2)
	require.NoError(t, err)

	rec, err := f.inventory.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.Equal(t, 7, rec.InitialQuantity)
	assert.Equal(t, -6, rec.LedgerSum)
	assert.Equal(t, 1, rec.Quantity)

	all, err := f.inventory.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Gadget", all[0].ProductName)
	for _, r := range all {
		assert.True(t, r.Balanced, r.ProductName)
	}

	_, err = f.inventory.Reconcile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func testUpdateDetails(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 10)

	updated, err := f.inventory.UpdateProductDetails(ctx, p.ID, model.ProductDetails{
		Name:        "Widget Pro",
		MinQuantity: intp(2),
		Price:       dec("12.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", updated.Name)
	assert.Equal(t, 10, updated.Quantity)

	got, err := f.inventory.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", got.Name)
	assert.Equal(t, 2, got.MinQuantity)
	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("4")), "omitted cost is kept")
	assert.True(t, got.CreatedDate.Equal(p.CreatedDate))
	assert.True(t, got.LastUpdated.After(p.LastUpdated))

	_, err = f.inventory.UpdateProductDetails(ctx, uuid.New(), model.ProductDetails{Name: "Ghost", Price: dec("1")})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.inventory.UpdateProductDetails(ctx, p.ID, model.ProductDetails{Name: "W", Price: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []events.Kind{events.KindProductCreated, events.KindProductUpdated}, f.publisher.kinds())
}

func testDeleteCascades(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 10)
	keep, err := f.inventory.CreateProduct(ctx, model.NewProduct{Name: "Keep", Quantity: 3, Price: dec("1")})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.inventory.ApplyStockMovement(ctx, p.ID, model.TxSale, 1)
		require.NoError(t, err)
	}
	_, err = f.inventory.ApplyStockMovement(ctx, keep.ID, model.TxRestock, 1)
	require.NoError(t, err)

	require.NoError(t, f.inventory.DeleteProduct(ctx, p.ID))

	_, err = f.inventory.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	orphans, err := f.store.Transactions().FindByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	history, err := f.dashboard.TransactionHistory(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Keep", history[0].ProductName)

	assert.ErrorIs(t, f.inventory.DeleteProduct(ctx, p.ID), ErrProductNotFound)
}

func testProductTransactions(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 10)
	for _, m := range []struct {
		typ   model.TransactionType
		units int
	}{{model.TxSale, 2}, {model.TxRestock, 5}, {model.TxSale, 4}} {
		_, err := f.inventory.ApplyStockMovement(ctx, p.ID, m.typ, m.units)
		require.NoError(t, err)
	}

	history, err := f.inventory.ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history.Transactions, 3)
	assert.Equal(t, -4, history.Transactions[0].QuantityChange, "newest first")
	assert.Equal(t, -2, history.Transactions[2].QuantityChange)
	assert.Equal(t, HistorySummary{Sales: 2, Restocks: 1, UnitsSold: 6, UnitsRestocked: 5}, history.Summary)

	_, err = f.inventory.ProductTransactions(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)

	one, err := f.inventory.GetTransaction(ctx, history.Transactions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, one.QuantityChange)
	assert.Equal(t, model.TxRestock, one.TransactionType)

	_, err = f.inventory.GetTransaction(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func testConcurrentSales(t *testing.T, f *fixture) {
	ctx := context.Background()
	p := createWidget(t, f, 5)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.inventory.ApplyStockMovement(ctx, p.ID, model.TxSale, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, rejected)

	rec, err := f.inventory.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Quantity)
	assert.True(t, rec.Balanced)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t, repository.NewMemoryStore())
	f.publisher.err = errors.New("broker down")

	p := createWidget(t, f, 3)
	res, err := f.inventory.ApplyStockMovement(context.Background(), p.ID, model.TxSale, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewQuantity)

	var warned bool
	for _, e := range f.logs.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Failed to publish event" {
			warned = true
		}
	}
	assert.True(t, warned)
}

type failingStore struct {
	repository.Store
	err error
}

func (s failingStore) Atomic(context.Context, func(repository.Store) error) error { return s.err }

func TestStoreFailuresAreUnavailable(t *testing.T) {
	down := errors.New("connection refused")
	f := newFixture(t, failingStore{Store: repository.NewMemoryStore(), err: down})

	_, err := f.inventory.ApplyStockMovement(context.Background(), uuid.New(), model.TxSale, 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, down)

	err = f.inventory.DeleteProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, SystemActor, ActorFrom(context.Background()))
	assert.Equal(t, SystemActor, ActorFrom(WithActor(context.Background(), "")))
	assert.Equal(t, "ops", ActorFrom(WithActor(context.Background(), "ops")))
}
