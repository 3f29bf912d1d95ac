package checkout

import (
	"sort"

	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"

	"github.com/shopspring/decimal"
)

// demand sums quantities per product and returns the ids ascending, the
// order rows are locked in.
func demand(lines []Line) ([]uint, map[uint]int) {
	qty := make(map[uint]int, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if _, seen := qty[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, qty
}

// priceLine snapshots the product's current prices onto a sale item.
func priceLine(p *models.Product, qty int) models.SaleItem {
	q := decimal.NewFromInt(int64(qty))
	return models.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Qty:         qty,
		UnitPrice:   p.SalePrice,
		UnitCost:    p.CostPrice,
		MarginPct:   p.MarginPct,
		LineTotal:   money.Round(p.SalePrice.Mul(q)),
		LineProfit:  money.Round(p.SalePrice.Sub(p.CostPrice).Mul(q)),
	}
}

// totals returns subtotal and total. A discount above the subtotal is an
// error, never clamped.
func totals(items []models.SaleItem, discount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	if discount.GreaterThan(subtotal) {
		return decimal.Zero, decimal.Zero, &InvalidDiscountError{Discount: discount, Subtotal: subtotal}
	}
	return subtotal, subtotal.Sub(discount), nil
}

// settle works out what was received and the change. Cash must cover the
// total. Other methods settle exactly unless a tendered amount is given.
func settle(method models.PaymentMethod, total decimal.Decimal, tendered *decimal.Decimal) (received, change decimal.Decimal, err error) {
	if method == models.PaymentCash {
		if tendered == nil {
			return decimal.Zero, decimal.Zero, &InsufficientPaymentError{Required: total, Received: decimal.Zero}
		}
		if tendered.LessThan(total) {
			return decimal.Zero, decimal.Zero, &InsufficientPaymentError{Required: total, Received: *tendered}
		}
		return *tendered, tendered.Sub(total), nil
	}
	if tendered == nil {
		return total, decimal.Zero, nil
	}
	return *tendered, money.Max(tendered.Sub(total), decimal.Zero), nil
}
