// Package ledger appends sales and reads them back. Rows are never updated
// or deleted; a correction is a new compensating sale.
package ledger

import (
	"context"
	"errors"
	"time"

	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSaleNotFound = errors.New("sale not found")

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertSale writes the header and all its items. Run it inside the same
// transaction as the stock decrements.
func (r *Repository) InsertSale(ctx context.Context, sale *models.Sale) error {
	if len(sale.Items) == 0 {
		return errors.New("a sale needs at least one item")
	}
	if sale.Reference == "" {
		sale.Reference = uuid.NewString()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}

	items := sale.Items
	sale.Items = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error; err != nil {
		sale.Items = items
		return err
	}
	for i := range items {
		items[i].SaleID = sale.ID
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
	sale.Items = items
	return err
}

// GetSale returns a sale with its items in cart order.
func (r *Repository) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Cashier returns the username recorded for a sale.
func (r *Repository) Cashier(ctx context.Context, userID uint) (string, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Select("username").First(&u, userID).Error; err != nil {
		return "", err
	}
	return u.Username, nil
}

// Summary holds the totals of a period
type Summary struct {
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Count     int64           `json:"sales_count"`
	Revenue   decimal.Decimal `json:"revenue"`
	Discounts decimal.Decimal `json:"discounts"`
	Profit    decimal.Decimal `json:"profit"`
	ByMethod  []MethodTotal   `json:"by_payment_method"`
	Top       []TopProduct    `json:"top_products"`
}

type MethodTotal struct {
	Method models.PaymentMethod `json:"payment_method"`
	Count  int64                `json:"count"`
	Total  decimal.Decimal      `json:"total"`
}

type TopProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int64           `json:"qty"`
	Total     decimal.Decimal `json:"total"`
}

// Summarize calculates sales within [start, end]. Profit comes from the
// line snapshots, so later price edits never change past periods.
func (r *Repository) Summarize(ctx context.Context, start, end time.Time, top int) (*Summary, error) {
	db := r.db.WithContext(ctx)
	s := &Summary{Start: start, End: end}

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	var totals struct {
		Count     int64
		Revenue   decimal.Decimal
		Discounts decimal.Decimal
	}
	err := db.Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue, COALESCE(SUM(discount), 0) AS discounts").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	s.Count = totals.Count

	var lines struct {
		Profit decimal.Decimal
	}
	err = db.Model(&models.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.created_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(sale_items.line_profit), 0) AS profit").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	s.Revenue = money.Round(totals.Revenue)
	s.Discounts = money.Round(totals.Discounts)
	// Discounts come off the top of the line profit.
	s.Profit = money.Round(lines.Profit.Sub(totals.Discounts))

	err = db.Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("payment_method").
		Order("payment_method").
		Scan(&s.ByMethod).Error
	if err != nil {
		return nil, err
	}
	for i := range s.ByMethod {
		s.ByMethod[i].Total = money.Round(s.ByMethod[i].Total)
	}

	if top > 0 {
		err = db.Model(&models.SaleItem{}).
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Where("sales.created_at BETWEEN ? AND ?", start, end).
			Select("sale_items.product_id, MAX(sale_items.product_name) AS name, SUM(sale_items.qty) AS qty, COALESCE(SUM(sale_items.line_total), 0) AS total").
			Group("sale_items.product_id").
			Order("qty DESC").
			Limit(top).
			Scan(&s.Top).Error
		if err != nil {
			return nil, err
		}
		for i := range s.Top {
			s.Top[i].Total = money.Round(s.Top[i].Total)
		}
	}
	return s, nil
}
