package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid order request")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDatabase          = errors.New("database error")
	ErrNotImplemented    = errors.New("not implemented")
	ErrRecordNotFound    = errors.New("inconsistency record not found")
	// ErrOrderOutcomeUnknown accompanies ErrDatabase when the order insert
	// may have been applied. The stock decrement is kept and the order is
	// left to reconciliation.
	ErrOrderOutcomeUnknown = errors.New("order outcome unknown")
)

// InsufficientStockError reports the stock seen when an order was refused.
// errors.Is(err, ErrInsufficientStock) holds for it.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}

// dbError tags a store failure with the step that hit it.
func dbError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatabase, step, err)
}
