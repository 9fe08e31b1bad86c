package model

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentityMissing is returned when neither a user ID nor a guest ID
	// is available to address a cart.
	ErrIdentityMissing = errors.New("cart requires a user ID or guest ID")

	// ErrStoreUnavailable wraps transport failures against the cart store.
	// Operations failing with it are retryable.
	ErrStoreUnavailable = errors.New("cart store unavailable")

	// ErrInventoryUnavailable wraps transport failures against the inventory
	// snapshot. Readers degrade affected products to zero stock (fail-closed);
	// the error is surfaced so callers can distinguish an outage from a true
	// zero count.
	ErrInventoryUnavailable = errors.New("inventory unavailable")
)

// InsufficientStockError rejects an upsert that requests more units than are
// currently available. Available is the caller-facing count.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.ProductID, e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// BatchPartialError reports a pipelined write-back that applied some
// operations and failed others. The read path treats it as a warning, not a
// total failure.
type BatchPartialError struct {
	Failed int
	Total  int
	First  error
}

func (e *BatchPartialError) Error() string {
	return fmt.Sprintf("batch partially failed: %d of %d ops (first: %v)", e.Failed, e.Total, e.First)
}

func (e *BatchPartialError) Unwrap() error { return e.First }
