package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrConcurrencyConflict means another checkout touched the same stock
	// first, or the transaction timed out waiting for it. Nothing was
	// written; the sale can be retried as is.
	ErrConcurrencyConflict = errors.New("stock changed by a concurrent checkout, retry the sale")
	ErrInvalidPayment      = errors.New("invalid payment")
)

type InvalidQuantityError struct {
	ProductID uint
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d", e.Quantity, e.ProductID)
}

// InvalidDiscountError is a negative discount or one larger than the
// subtotal. Subtotal is zero when the discount was rejected before pricing.
type InvalidDiscountError struct {
	Discount decimal.Decimal
	Subtotal decimal.Decimal
}

func (e *InvalidDiscountError) Error() string {
	if e.Discount.IsNegative() {
		return fmt.Sprintf("discount %s must not be negative", e.Discount.StringFixed(2))
	}
	return fmt.Sprintf("discount %s exceeds subtotal %s", e.Discount.StringFixed(2), e.Subtotal.StringFixed(2))
}

type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found or inactive", e.ProductID)
}

// Shortage is one product the cart asks more of than is on hand.
type Shortage struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// OutOfStockError lists every short product, not just the first.
type OutOfStockError struct {
	Shortages []Shortage
}

func (e *OutOfStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("product %d requested %d available %d", s.ProductID, s.Requested, s.Available)
	}
	return "out of stock: " + strings.Join(parts, "; ")
}

type InsufficientPaymentError struct {
	Required decimal.Decimal
	Received decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: required %s, received %s",
		e.Required.StringFixed(2), e.Received.StringFixed(2))
}

// InfrastructureError wraps a store fault. The request failed; the process
// and the data are fine.
type InfrastructureError struct {
	Err error
}

func (e *InfrastructureError) Error() string { return "store unavailable: " + e.Err.Error() }

func (e *InfrastructureError) Unwrap() error { return e.Err }

// conflictError keeps the driver cause while matching ErrConcurrencyConflict.
type conflictError struct {
	cause error
}

func (e *conflictError) Error() string { return ErrConcurrencyConflict.Error() + ": " + e.cause.Error() }

func (e *conflictError) Is(target error) bool { return target == ErrConcurrencyConflict }

func (e *conflictError) Unwrap() error { return e.cause }
