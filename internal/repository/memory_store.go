package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/model"

	"github.com/google/uuid"
)

// memoryData is one consistent version of the ledger
type memoryData struct {
	products     map[uuid.UUID]model.Product
	transactions map[uuid.UUID]model.Transaction
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		products:     make(map[uuid.UUID]model.Product, len(d.products)),
		transactions: make(map[uuid.UUID]model.Transaction, len(d.transactions)),
	}
	for id, p := range d.products {
		c.products[id] = p
	}
	for id, t := range d.transactions {
		c.transactions[id] = t
	}
	return c
}

// MemoryStore keeps the ledger in process memory. Atomic calls are fully
// serialized and work on a copy that replaces the live data only when fn
// succeeds.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memoryData{
		products:     make(map[uuid.UUID]model.Product),
		transactions: make(map[uuid.UUID]model.Transaction),
	}}
}

func (s *MemoryStore) Products() ProductRepository {
	return &memoryProducts{view: s.lockedView()}
}

func (s *MemoryStore) Transactions() TransactionRepository {
	return &memoryTransactions{view: s.lockedView()}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	if err := fn(&memoryTx{view: &dataView{data: working}}); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) lockedView() view {
	return &storeView{store: s}
}

// view gives repositories read/write access to a memoryData under the right lock
type view interface {
	read(fn func(d *memoryData) error) error
	write(fn func(d *memoryData) error) error
}

// storeView locks the live store for every call
type storeView struct {
	store *MemoryStore
}

func (v *storeView) read(fn func(d *memoryData) error) error {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.data)
}

func (v *storeView) write(fn func(d *memoryData) error) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

// dataView is used inside Atomic, where the store lock is already held
type dataView struct {
	data *memoryData
}

func (v *dataView) read(fn func(d *memoryData) error) error  { return fn(v.data) }
func (v *dataView) write(fn func(d *memoryData) error) error { return fn(v.data) }

type memoryTx struct {
	view view
}

func (t *memoryTx) Products() ProductRepository         { return &memoryProducts{view: t.view} }
func (t *memoryTx) Transactions() TransactionRepository { return &memoryTransactions{view: t.view} }
func (t *memoryTx) Ping(ctx context.Context) error      { return ctx.Err() }

// Atomic inside an Atomic call simply joins the outer unit of work
func (t *memoryTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

type memoryProducts struct {
	view view
}

func (r *memoryProducts) Create(ctx context.Context, product *model.Product) error {
	product.AssignID()
	stored := *product
	stored.Transactions = nil
	return r.view.write(func(d *memoryData) error {
		d.products[stored.ID] = stored
		return nil
	})
}

func (r *memoryProducts) FindAll(ctx context.Context) ([]model.Product, error) {
	return r.filter(func(model.Product) bool { return true })
}

func (r *memoryProducts) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var found *model.Product
	err := r.view.read(func(d *memoryData) error {
		p, ok := d.products[id]
		if !ok {
			return ErrNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

// FindByIDForUpdate needs no extra locking: Atomic already serializes writers
func (r *memoryProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryProducts) FindLowStock(ctx context.Context) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.IsLowStock() })
}

func (r *memoryProducts) SearchByName(ctx context.Context, term string) ([]model.Product, error) {
	needle := strings.ToLower(term)
	return r.filter(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
}

func (r *memoryProducts) UpdateDetails(ctx context.Context, product *model.Product) error {
	return r.view.write(func(d *memoryData) error {
		existing, ok := d.products[product.ID]
		if !ok {
			return ErrNotFound
		}
		existing.Name = product.Name
		existing.MinQuantity = product.MinQuantity
		existing.Price = product.Price
		existing.Cost = product.Cost
		existing.LastUpdated = product.LastUpdated
		d.products[product.ID] = existing
		return nil
	})
}

func (r *memoryProducts) UpdateStock(ctx context.Context, id uuid.UUID, newQuantity int, at time.Time) error {
	return r.view.write(func(d *memoryData) error {
		existing, ok := d.products[id]
		if !ok {
			return ErrNotFound
		}
		existing.Quantity = newQuantity
		existing.LastUpdated = at
		d.products[id] = existing
		return nil
	})
}

func (r *memoryProducts) Delete(ctx context.Context, id uuid.UUID) error {
	return r.view.write(func(d *memoryData) error {
		if _, ok := d.products[id]; !ok {
			return ErrNotFound
		}
		delete(d.products, id)
		for txID, t := range d.transactions {
			if t.ProductID == id {
				delete(d.transactions, txID)
			}
		}
		return nil
	})
}

func (r *memoryProducts) filter(keep func(model.Product) bool) ([]model.Product, error) {
	var products []model.Product
	err := r.view.read(func(d *memoryData) error {
		for _, p := range d.products {
			if keep(p) {
				products = append(products, p)
			}
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID.String() < products[j].ID.String()
	})
	return products, err
}

type memoryTransactions struct {
	view view
}

func (r *memoryTransactions) Create(ctx context.Context, txn *model.Transaction) error {
	txn.AssignID()
	return r.view.write(func(d *memoryData) error {
		if _, ok := d.products[txn.ProductID]; !ok {
			return ErrNotFound
		}
		d.transactions[txn.ID] = *txn
		return nil
	})
}

func (r *memoryTransactions) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var found *model.Transaction
	err := r.view.read(func(d *memoryData) error {
		t, ok := d.transactions[id]
		if !ok {
			return ErrNotFound
		}
		found = &t
		return nil
	})
	return found, err
}

func (r *memoryTransactions) FindByProductID(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.view.read(func(d *memoryData) error {
		for _, t := range d.transactions {
			if t.ProductID == productID {
				transactions = append(transactions, t)
			}
		}
		return nil
	})
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})
	return transactions, err
}

func (r *memoryTransactions) FindAllWithProduct(ctx context.Context, from, to time.Time) ([]model.TransactionView, error) {
	var views []model.TransactionView
	err := r.view.read(func(d *memoryData) error {
		for _, t := range d.transactions {
			if !from.IsZero() && t.Timestamp.Before(from) {
				continue
			}
			if !to.IsZero() && t.Timestamp.After(to) {
				continue
			}
			p, ok := d.products[t.ProductID]
			if !ok {
				continue
			}
			views = append(views, model.TransactionView{Transaction: t, ProductName: p.Name})
		}
		return nil
	})
	sort.Slice(views, func(i, j int) bool {
		return views[i].Timestamp.After(views[j].Timestamp)
	})
	return views, err
}

func (r *memoryTransactions) DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.view.write(func(d *memoryData) error {
		for id, t := range d.transactions {
			if t.ProductID == productID {
				delete(d.transactions, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}
