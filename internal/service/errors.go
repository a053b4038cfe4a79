package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aliyusifov99/inventory-management/internal/repository"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("units must be a positive integer")
	ErrInvalidTransactionType = errors.New("transaction type must be SALE or RESTOCK")
	ErrStoreUnavailable       = errors.New("ledger store unavailable")
	ErrValidation             = errors.New("validation failed")

	// Field error kinds
	ErrInvalidName   = errors.New("name must have at least 2 characters")
	ErrInvalidPrice  = errors.New("price must be greater than 0")
	ErrNegativeValue = errors.New("value must not be negative")
	ErrTooPrecise    = errors.New("value must have at most 2 decimal places")
)

// InsufficientStockError is returned when a sale asks for more units than
// are on hand
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available, %d requested", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// FieldError is one violated product field constraint
type FieldError struct {
	Field string `json:"field"`
	Err   error  `json:"-"`
}

func (f FieldError) Error() string {
	return f.Field + ": " + f.Err.Error()
}

func (f FieldError) Unwrap() error { return f.Err }

// ValidationError carries every violated field constraint of one input
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// storeErr maps repository failures onto the service error kinds
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// passThrough leaves service errors produced inside an Atomic unit untouched
// and wraps anything else as a store failure
func passThrough(err error) error {
	for _, known := range []error{
		ErrProductNotFound, ErrInsufficientStock, ErrInvalidQuantity,
		ErrInvalidTransactionType, ErrStoreUnavailable, ErrValidation,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storeErr(err)
}
