package service

import (
	"github.com/aliyusifov99/inventory-management/internal/model"
	"github.com/aliyusifov99/inventory-management/pkg/validator"

	"github.com/shopspring/decimal"
)

// fieldOrder lists validated fields in the order violations are reported
var fieldOrder = []string{"Name", "Price", "Quantity", "MinQuantity", "Cost"}

var fieldNames = map[string]string{
	"Name":        "name",
	"Price":       "price",
	"Quantity":    "quantity",
	"MinQuantity": "min_quantity",
	"Cost":        "cost",
}

// ValidateProduct checks product fields and returns every violation. Nil
// quantity, minQuantity and cost are treated as omitted. Price and cost may
// carry at most model.MoneyScale decimal places. An empty result means the
// input is valid.
func ValidateProduct(name string, price *decimal.Decimal, quantity, minQuantity *int, cost *decimal.Decimal) []FieldError {
	input := model.ProductInput{
		Name:        name,
		Price:       price,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		Cost:        cost,
	}

	failed := make(map[string]error)
	for _, e := range validator.ValidateStruct(input) {
		failed[e.FailedField] = kindFor(e.FailedField)
	}
	if _, ok := failed["Price"]; !ok && tooPrecise(price) {
		failed["Price"] = ErrTooPrecise
	}
	if _, ok := failed["Cost"]; !ok && tooPrecise(cost) {
		failed["Cost"] = ErrTooPrecise
	}

	var fields []FieldError
	for _, name := range fieldOrder {
		if kind, ok := failed[name]; ok {
			fields = append(fields, FieldError{Field: fieldNames[name], Err: kind})
		}
	}
	return fields
}

func tooPrecise(d *decimal.Decimal) bool {
	return d != nil && !d.Equal(d.Round(model.MoneyScale))
}

func kindFor(field string) error {
	switch field {
	case "Name":
		return ErrInvalidName
	case "Price":
		return ErrInvalidPrice
	default:
		return ErrNegativeValue
	}
}

func validationErr(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
