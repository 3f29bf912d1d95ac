// Package catalog owns products and suppliers: lookups, row locks, guarded
// stock changes and bulk import.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrDuplicate        = errors.New("sku, barcode or name already in use")
	// ErrStockConflict means a guarded stock update matched no row: the stock
	// moved under us and nothing was changed.
	ErrStockConflict = errors.New("stock changed concurrently")
	ErrNegativeStock = errors.New("adjustment would make stock negative")
	// ErrInvalid wraps input that fails validation.
	ErrInvalid = errors.New("invalid input")
)

// Repository reads and writes catalog rows. Built on a *gorm.DB or on a
// transaction handle, so the same code runs inside a checkout unit of work.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows Search. Empty fields match everything.
type Filter struct {
	Query    string
	Category string
	Brand    string
	Limit    int
}

// editable lists the columns PUT /products/:id may change. Stock only moves
// through checkout and AdjustStock.
var editable = []string{
	"sku", "barcode", "name", "item_type", "category", "brand", "varietal", "vintage",
	"volume_ml", "abv", "country", "region", "supplier_id", "cost_price", "margin_pct",
	"sale_price", "min_stock", "lot_code", "expiry", "active", "updated_at",
}

func (r *Repository) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &p, nil
}

// GetProductForUpdate reads a product and locks its row until the enclosing
// transaction ends (SELECT ... FOR UPDATE; SQLite has no row locks and
// serializes writers instead).
func (r *Repository) GetProductForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &p, nil
}

// GetByBarcode returns the active product with the scanned code.
func (r *Repository) GetByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND active = ?", strings.TrimSpace(code), true).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &p, nil
}

// Search lists active products by name, SKU or barcode.
func (r *Repository) Search(ctx context.Context, f Filter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode = ?", like, like, s)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(f.Brand))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var products []models.Product
	if err := q.Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Facets holds the values the product search can filter by.
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

// Facets lists the distinct non-empty categories and brands of active products.
func (r *Repository) Facets(ctx context.Context) (*Facets, error) {
	f := &Facets{Categories: []string{}, Brands: []string{}}
	for col, dst := range map[string]*[]string{"category": &f.Categories, "brand": &f.Brands} {
		err := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("active = ? AND "+col+" IS NOT NULL AND "+col+" <> ''", true).
			Distinct().
			Order(col).
			Pluck(col, dst).Error
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LowStock lists active products at or below their minimum.
func (r *Repository) LowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND stock_qty <= min_stock", true).
		Order("stock_qty, name").
		Find(&products).Error
	return products, err
}

// Expiring lists active, stocked products whose expiry falls within days.
func (r *Repository) Expiring(ctx context.Context, days int) ([]models.Product, error) {
	limit := time.Now().AddDate(0, 0, days)
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND stock_qty > 0 AND expiry IS NOT NULL AND expiry <= ?", true, limit).
		Order("expiry").
		Find(&products).Error
	return products, err
}

// CreateProduct validates and inserts a product.
func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	normalize(p)
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return duplicate(err)
	}
	return nil
}

// CreateWithStock inserts p and books p.StockQty as an opening movement,
// both in one transaction. Nothing is left behind when either step fails.
func (r *Repository) CreateWithStock(ctx context.Context, p *models.Product, userID uint, reason string) error {
	opening := p.StockQty
	if opening < 0 {
		return invalid(errors.New("opening stock must be non-negative"))
	}
	p.StockQty = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := New(tx)
		if err := repo.CreateProduct(ctx, p); err != nil {
			return err
		}
		if opening == 0 {
			return nil
		}
		_, err := repo.AdjustStock(ctx, p.ID, opening, userID, reason)
		return err
	})
	if err != nil {
		p.ID = 0
	}
	p.StockQty = opening
	return err
}

// UpdateProduct overwrites the editable fields of product id with p.
func (r *Repository) UpdateProduct(ctx context.Context, id uint, p *models.Product) (*models.Product, error) {
	current, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.StockQty = current.StockQty
	p.UpdatedAt = time.Now()
	normalize(p)
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}

	err = r.db.WithContext(ctx).Model(&models.Product{ID: id}).
		Select(editable).
		Omit(clause.Associations).
		Updates(p).Error
	if err != nil {
		return nil, duplicate(err)
	}
	return r.GetProduct(ctx, id)
}

// UpdatePrice sets a new sale price. Past sales keep their snapshot.
func (r *Repository) UpdatePrice(ctx context.Context, id uint, price decimal.Decimal) error {
	if price.IsNegative() {
		return invalid(errors.New("price must be non-negative"))
	}
	if _, err := r.GetProduct(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Product{ID: id}).
		Update("sale_price", money.Round(price)).Error
}

// Deactivate hides a product from sale. Products are never deleted because
// sale items reference them.
func (r *Repository) Deactivate(ctx context.Context, id uint) error {
	if _, err := r.GetProduct(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Product{ID: id}).
		Update("active", false).Error
}

// DecrementStock removes qty units only if that many are on hand. A miss
// returns ErrStockConflict and leaves the row untouched.
func (r *Repository) DecrementStock(ctx context.Context, id uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", id, qty).
		Updates(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

// AdjustStock applies a manual inventory correction and records who made
// it. It locks the row and uses the same guarded update as checkout.
func (r *Repository) AdjustStock(ctx context.Context, id uint, delta int, userID uint, reason string) (*models.StockMovement, error) {
	if delta == 0 {
		return nil, invalid(errors.New("delta must not be zero"))
	}

	var mv models.StockMovement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := New(tx)
		p, err := locked.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.StockQty+delta < 0 {
			return ErrNegativeStock
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock_qty = ?", id, p.StockQty).
			Updates(map[string]any{
				"stock_qty":  gorm.Expr("stock_qty + ?", delta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStockConflict
		}

		mv = models.StockMovement{
			ProductID:   id,
			UserID:      userID,
			Delta:       delta,
			StockBefore: p.StockQty,
			StockAfter:  p.StockQty + delta,
			Reason:      strings.TrimSpace(reason),
		}
		return tx.Create(&mv).Error
	})
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// Movements returns the adjustment history of a product, newest first.
func (r *Repository) Movements(ctx context.Context, productID uint) ([]models.StockMovement, error) {
	var out []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

func normalize(p *models.Product) {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.Barcode != nil {
		if code := strings.TrimSpace(*p.Barcode); code == "" {
			p.Barcode = nil
		} else {
			p.Barcode = &code
		}
	}
	p.CostPrice = money.Round(p.CostPrice)
	p.SalePrice = money.Round(p.SalePrice)
	p.MarginPct = p.MarginPct.Round(2)
	p.ABV = p.ABV.Round(2)
	p.Supplier = nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
