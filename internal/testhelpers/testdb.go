// Package testhelpers builds throwaway databases and fixtures for tests.
package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"

	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/database"
	"go-adega-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewTestDB returns a migrated in-memory SQLite database private to the test.
// The pool holds one connection, so concurrent transactions queue behind each
// other the way row locks make them queue on MySQL or PostgreSQL.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.Config("silent"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role and password "secret".
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateProduct inserts an active wine with the given stock and prices.
func CreateProduct(t testing.TB, db *gorm.DB, sku string, stock int, cost, price string) models.Product {
	t.Helper()
	p := models.Product{
		SKU:       sku,
		Name:      "Produto " + sku,
		ItemType:  models.ItemWine,
		Category:  "Tinto",
		Brand:     "Casa Teste",
		CostPrice: decimal.RequireFromString(cost),
		MarginPct: decimal.NewFromInt(30),
		SalePrice: decimal.RequireFromString(price),
		StockQty:  stock,
		MinStock:  2,
		Active:    true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// Stock reads the current stock of a product straight from the table.
func Stock(t testing.TB, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	if err := db.Select("stock_qty").First(&p, id).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return p.StockQty
}
