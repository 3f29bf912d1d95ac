// Package checkout turns a cart into a committed sale. Stock checks, price
// snapshots, stock decrements and the ledger insert all happen in one
// transaction, so a checkout either fully happens or leaves no trace.
package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/database"
	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultTimeout = 5 * time.Second

// MaxQuantity caps the units of one product in a cart, summed over its lines.
const MaxQuantity = 100_000

// Line is one cart entry.
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Request is a cart ready to be charged. The cashier was authenticated
// upstream and is trusted here.
type Request struct {
	CashierID     uint
	CashierName   string
	PaymentMethod models.PaymentMethod
	Items         []Line
	Discount      decimal.Decimal
	// Received is the tendered amount; nil means "not given".
	Received *decimal.Decimal
}

// Receipt is the committed sale, ready for printing.
type Receipt struct {
	Sale    *models.Sale `json:"sale"`
	Cashier string       `json:"cashier"`
}

// Notifier hears about committed sales. It runs after commit; a failure
// there cannot undo the sale.
type Notifier interface {
	SaleCompleted(ctx context.Context, r *Receipt)
}

// Observer records the outcome and latency of each checkout.
type Observer interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
}

type Processor struct {
	store    Store
	timeout  time.Duration
	notifier Notifier
	observer Observer
}

type Option func(*Processor)

// WithTimeout bounds the transaction. Running out of time is reported as
// ErrConcurrencyConflict.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithNotifier(n Notifier) Option { return func(p *Processor) { p.notifier = n } }

func WithObserver(o Observer) Option { return func(p *Processor) { p.observer = o } }

func NewProcessor(store Store, opts ...Option) *Processor {
	p := &Processor{store: store, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessSale charges the cart. Each call records a new sale; it is not
// idempotent. On any error nothing was written.
func (p *Processor) ProcessSale(ctx context.Context, req Request) (*Receipt, error) {
	start := time.Now()
	receipt, err := p.processSale(ctx, req)
	if p.observer != nil {
		p.observer.ObserveCheckout(Outcome(err), time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	if p.notifier != nil {
		p.notifier.SaleCompleted(context.WithoutCancel(ctx), receipt)
	}
	return receipt, nil
}

func (p *Processor) processSale(ctx context.Context, req Request) (*Receipt, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	discount := money.Round(req.Discount)
	var tendered *decimal.Decimal
	if req.Received != nil {
		r := money.Round(*req.Received)
		tendered = &r
	}

	ids, want := demand(req.Items)

	txCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var sale *models.Sale
	err := p.store.Transact(txCtx, func(cat Catalog, led Ledger) error {
		products := make(map[uint]*models.Product, len(ids))
		for _, id := range ids {
			prod, err := cat.GetProductForUpdate(txCtx, id)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return &ProductNotFoundError{ProductID: id}
			}
			if err != nil {
				return err
			}
			if !prod.Active {
				return &ProductNotFoundError{ProductID: id}
			}
			products[id] = prod
		}

		var short []Shortage
		for _, id := range ids {
			if prod := products[id]; prod.StockQty < want[id] {
				short = append(short, Shortage{ProductID: id, Name: prod.Name, Requested: want[id], Available: prod.StockQty})
			}
		}
		if len(short) > 0 {
			return &OutOfStockError{Shortages: short}
		}

		items := make([]models.SaleItem, len(req.Items))
		for i, l := range req.Items {
			items[i] = priceLine(products[l.ProductID], l.Quantity)
		}
		subtotal, total, err := totals(items, discount)
		if err != nil {
			return err
		}
		received, change, err := settle(req.PaymentMethod, total, tendered)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := cat.DecrementStock(txCtx, id, want[id]); err != nil {
				return err
			}
		}

		sale = &models.Sale{
			Reference:     uuid.NewString(),
			CreatedAt:     time.Now(),
			UserID:        req.CashierID,
			PaymentMethod: req.PaymentMethod,
			Subtotal:      subtotal,
			Discount:      discount,
			Total:         total,
			Received:      received,
			ChangeDue:     change,
			Items:         items,
		}
		return led.InsertSale(txCtx, sale)
	})
	if err != nil {
		return nil, classify(txCtx, err)
	}

	return &Receipt{Sale: sale, Cashier: req.CashierName}, nil
}

// validate rejects malformed carts before any store access.
func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	perProduct := make(map[uint]int, len(req.Items))
	for _, l := range req.Items {
		if l.ProductID == 0 {
			return &ProductNotFoundError{}
		}
		if l.Quantity <= 0 || l.Quantity > MaxQuantity {
			return &InvalidQuantityError{ProductID: l.ProductID, Quantity: l.Quantity}
		}
		// Both terms are bounded, so the sum cannot wrap.
		perProduct[l.ProductID] += l.Quantity
		if perProduct[l.ProductID] > MaxQuantity {
			return &InvalidQuantityError{ProductID: l.ProductID, Quantity: perProduct[l.ProductID]}
		}
	}
	if req.Discount.IsNegative() {
		return &InvalidDiscountError{Discount: req.Discount}
	}
	if !req.PaymentMethod.Valid() {
		return &models.EnumError{Kind: "payment method", Value: string(req.PaymentMethod)}
	}
	if req.Received != nil && req.Received.IsNegative() {
		return ErrInvalidPayment
	}
	return nil
}

// classify maps a failed transaction onto the checkout error taxonomy.
func classify(ctx context.Context, err error) error {
	var (
		notFound *ProductNotFoundError
		short    *OutOfStockError
		discount *InvalidDiscountError
		payment  *InsufficientPaymentError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &short), errors.As(err, &discount), errors.As(err, &payment):
		return err
	case errors.Is(err, catalog.ErrStockConflict), database.IsConflict(err):
		return &conflictError{cause: err}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &conflictError{cause: ctx.Err()}
	case errors.Is(err, context.Canceled):
		return err
	}
	log.Printf("checkout: store error: %v", err)
	return &InfrastructureError{Err: err}
}

// Outcome names an error for metrics and logs.
func Outcome(err error) string {
	var (
		notFound *ProductNotFoundError
		short    *OutOfStockError
		payment  *InsufficientPaymentError
		infra    *InfrastructureError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &short):
		return "out_of_stock"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &payment):
		return "insufficient_payment"
	case errors.As(err, &infra):
		return "error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "invalid"
}
