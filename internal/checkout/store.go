package checkout

import (
	"context"

	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/ledger"
	"go-adega-pos/internal/models"

	"gorm.io/gorm"
)

// Catalog is the slice of the product store a checkout needs.
type Catalog interface {
	GetProductForUpdate(ctx context.Context, id uint) (*models.Product, error)
	DecrementStock(ctx context.Context, id uint, qty int) error
}

// Ledger appends the sale.
type Ledger interface {
	InsertSale(ctx context.Context, sale *models.Sale) error
}

// Store runs fn as one unit of work: every catalog and ledger write inside
// it commits together or not at all.
type Store interface {
	Transact(ctx context.Context, fn func(Catalog, Ledger) error) error
}

// GormStore binds catalog and ledger repositories to one gorm transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transact(ctx context.Context, fn func(Catalog, Ledger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(catalog.New(tx), ledger.New(tx))
	})
}
