package catalog

import (
	"context"
	"sort"

	"go-adega-pos/internal/money"

	"github.com/shopspring/decimal"
)

// ValuationItem is one product row of the stock valuation.
type ValuationItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one category table of the valuation.
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Valuation prices the stock on hand at cost, grouped by category.
func (r *Repository) Valuation(ctx context.Context) (*Valuation, error) {
	products, err := r.Search(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*CategoryGroup)
	out := &Valuation{GrandTotal: decimal.Zero}
	for _, p := range products {
		if p.StockQty == 0 {
			continue
		}
		name := p.Category
		if name == "" {
			name = "Sem categoria"
		}
		g, ok := grouped[name]
		if !ok {
			g = &CategoryGroup{CategoryName: name, Subtotal: decimal.Zero}
			grouped[name] = g
		}

		total := money.Round(p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQty))))
		g.Items = append(g.Items, ValuationItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  p.StockQty,
			CostPrice: p.CostPrice,
			TotalCost: total,
		})
		g.Subtotal = g.Subtotal.Add(total)
		out.GrandTotal = out.GrandTotal.Add(total)
	}

	for _, g := range grouped {
		out.Categories = append(out.Categories, *g)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return out, nil
}
