package orders

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned by lookups and updates of unknown orders.
var ErrOrderNotFound = errors.New("order not found")

// NotFoundError aborts the whole placement when a cart line references a
// product that does not exist (or was never created).
type NotFoundError struct {
	ProductID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError aborts the whole placement when a line asks for
// more units than the locked row holds.
type InsufficientStockError struct {
	ProductID int
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q (product %d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

// ValidationError reports malformed checkout input before any database
// work starts.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
