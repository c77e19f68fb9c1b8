package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, title string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Title:        title,
		Price:        models.MustMoney("12.50"),
		StockQty:     stock,
		InitialStock: stock,
		IsActive:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestCompareAndSwapStockAdvancesVersion(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createTestProduct(t, db, "Dune", 5)

	rows, err := repo.CompareAndSwapStock(product.ID, product.Version, -3)
	if err != nil {
		t.Fatalf("cas failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("cas rows want 1 got %d", rows)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil || got == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if got.StockQty != 2 {
		t.Fatalf("stock want 2 got %d", got.StockQty)
	}
	if got.Version != product.Version+1 {
		t.Fatalf("version want %d got %d", product.Version+1, got.Version)
	}
}

func TestCompareAndSwapStockRejectsStaleVersion(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createTestProduct(t, db, "Emma", 5)

	if rows, err := repo.CompareAndSwapStock(product.ID, product.Version, -1); err != nil || rows != 1 {
		t.Fatalf("first cas should succeed, rows=%d err=%v", rows, err)
	}
	rows, err := repo.CompareAndSwapStock(product.ID, product.Version, -1)
	if err != nil {
		t.Fatalf("stale cas err: %v", err)
	}
	if rows != 0 {
		t.Fatalf("stale version should not update, rows=%d", rows)
	}
}

func TestCompareAndSwapStockNeverGoesNegative(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createTestProduct(t, db, "Ulysses", 2)

	rows, err := repo.CompareAndSwapStock(product.ID, product.Version, -3)
	if err != nil {
		t.Fatalf("cas err: %v", err)
	}
	if rows != 0 {
		t.Fatalf("oversell should not update, rows=%d", rows)
	}
	got, _ := repo.GetByID(product.ID)
	if got.StockQty != 2 || got.Version != product.Version {
		t.Fatalf("product should be untouched, got stock=%d version=%d", got.StockQty, got.Version)
	}
}

func TestListByIDsSkipsMissing(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewProductRepository(db)
	a := createTestProduct(t, db, "A", 1)
	b := createTestProduct(t, db, "B", 1)

	products, err := repo.ListByIDs([]uint{b.ID, a.ID, 9999})
	if err != nil {
		t.Fatalf("list by ids failed: %v", err)
	}
	if len(products) != 2 || products[0].ID != a.ID {
		t.Fatalf("unexpected products: %+v", products)
	}
	if missing, err := repo.GetByID(9999); err != nil || missing != nil {
		t.Fatalf("missing product should return nil,nil got %v %v", missing, err)
	}
}
