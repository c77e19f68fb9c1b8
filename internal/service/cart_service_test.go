package service

import (
	"errors"
	"testing"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"
)

func TestCartUpsertListAndRemove(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := seedProduct(t, db, "Cart", "4.50", 1)

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("upsert update failed: %v", err)
	}
	items, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("unexpected cart: %+v", items)
	}
	if !items[0].TotalPrice.Equal(models.MustMoney("13.50").Decimal) {
		t.Fatalf("line total want 13.50 got %s", items[0].TotalPrice)
	}
	if items[0].Available {
		t.Fatalf("quantity above stock should be flagged unavailable")
	}

	if err := svc.RemoveItem(1, product.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	items, _ = svc.ListByUser(1)
	if len(items) != 0 {
		t.Fatalf("cart should be empty")
	}
}

func TestCartRejectsInvalidInput(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := seedProduct(t, db, "Inactive", "4.50", 1)
	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity should fail, got %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: 999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product should fail, got %v", err)
	}
	if err := svc.UpsertItem(UpsertCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("inactive product should fail, got %v", err)
	}
}
