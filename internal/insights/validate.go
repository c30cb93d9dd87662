package insights

import (
	"errors"
	"fmt"
	"math"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

const (
	// MaxAmount bounds cost and price so every amount still fits in int64
	// minor units when rounded.
	MaxAmount = 1e12
	// MaxQuantity bounds quantity and minimum stock level.
	MaxQuantity = 1_000_000_000
)

// ErrInvalidItem is matched by every item validation failure.
var ErrInvalidItem = errors.New("invalid inventory item")

// ValidationError names the offending item and field. Problem is "missing"
// unless set.
type ValidationError struct {
	ItemID  string
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	problem := e.Problem
	if problem == "" {
		problem = "missing"
	}
	if e.ItemID == "" {
		return fmt.Sprintf("%s: %s %s", ErrInvalidItem, problem, e.Field)
	}
	return fmt.Sprintf("%s %q: %s %s", ErrInvalidItem, e.ItemID, problem, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidItem
}

// ValidateItem checks the fields every numeric component relies on.
func ValidateItem(item domain.Item) error {
	if item.ID == "" {
		return &ValidationError{Field: "id"}
	}
	if item.Quantity == nil {
		return &ValidationError{ItemID: item.ID, Field: "quantity"}
	}
	if item.MinStockLevel == nil {
		return &ValidationError{ItemID: item.ID, Field: "min_stock_level"}
	}
	if !validQuantity(*item.Quantity) {
		return &ValidationError{ItemID: item.ID, Field: "quantity", Problem: "out of range"}
	}
	if !validQuantity(*item.MinStockLevel) {
		return &ValidationError{ItemID: item.ID, Field: "min_stock_level", Problem: "out of range"}
	}
	if !ValidAmount(item.Cost) {
		return &ValidationError{ItemID: item.ID, Field: "cost", Problem: "invalid"}
	}
	if !ValidAmount(item.Price) {
		return &ValidationError{ItemID: item.ID, Field: "price", Problem: "invalid"}
	}
	return nil
}

// ValidateItems fails on the first invalid item.
func ValidateItems(items []domain.Item) error {
	for _, item := range items {
		if err := ValidateItem(item); err != nil {
			return err
		}
	}
	return nil
}

// ValidAmount reports whether v is a finite amount within MaxAmount.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= MaxAmount
}

func validQuantity(v int) bool {
	return v >= -MaxQuantity && v <= MaxQuantity
}
