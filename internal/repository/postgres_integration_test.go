//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCompareAndSwapStockUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	product := createTestProduct(t, db, "Contended Title", 5)
	repo := NewProductRepository(db)

	const workers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 50; attempt++ {
				current, err := repo.GetByID(product.ID)
				if err != nil || current == nil {
					return
				}
				if current.StockQty < 1 {
					return
				}
				rows, err := repo.CompareAndSwapStock(product.ID, current.Version, -1)
				if err != nil {
					return
				}
				if rows == 1 {
					mu.Lock()
					applied++
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	final, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if applied != 5 {
		t.Fatalf("exactly 5 decrements should win, got %d", applied)
	}
	if final.StockQty != 0 {
		t.Fatalf("stock want 0 got %d", final.StockQty)
	}
	if final.Version != uint64(applied) {
		t.Fatalf("version want %d got %d", applied, final.Version)
	}
}

func TestPostgresStockCheckConstraintRejectsNegative(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	product := createTestProduct(t, db, "Guarded Title", 1)

	err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock_qty", -1).Error
	if err == nil {
		t.Fatalf("negative stock should violate check constraint")
	}
}

func TestPostgresPromoRemainingUsesNeverNegative(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	remaining := 3
	promo := &models.PromoCode{
		Code:            "PGLIMIT",
		Type:            constants.PromoTypePercentage,
		DiscountPercent: 10,
		IsActive:        true,
		RemainingUses:   &remaining,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	repo := NewPromoCodeRepository(db)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := repo.DecrementRemainingUses(promo.ID)
			if err == nil && rows == 1 {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	reloaded, err := repo.GetByID(promo.ID)
	if err != nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	if winners != 3 {
		t.Fatalf("winners want 3 got %d", winners)
	}
	if reloaded.RemainingUses == nil || *reloaded.RemainingUses != 0 {
		t.Fatalf("remaining uses want 0 got %v", reloaded.RemainingUses)
	}
}

func TestPostgresOutboxFetchPendingOrder(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOutboxRepository(db)
	for _, eventID := range []string{"pg-evt-1", "pg-evt-2", "pg-evt-3"} {
		if err := repo.Insert(&models.OutboxEvent{
			EventID:   eventID,
			Topic:     constants.TopicOrderCommitted,
			Key:       "BK-PG",
			Payload:   `{}`,
			CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("insert outbox event failed: %v", err)
		}
	}

	pending, err := repo.FetchPending(10)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(pending) != 3 || pending[0].EventID != "pg-evt-1" {
		t.Fatalf("unexpected pending events: %+v", pending)
	}
	if err := repo.MarkSent(pending[0].ID, time.Now()); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, err = repo.FetchPending(10)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].EventID != "pg-evt-2" {
		t.Fatalf("sent event should be skipped: %+v", pending)
	}
}

func TestPostgresPromoRowLockSerializesPerUserRedemption(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	perUser := 1
	promo := &models.PromoCode{
		Code:            "PGONCE",
		Type:            constants.PromoTypePercentage,
		DiscountPercent: 10,
		IsActive:        true,
		PerUserLimit:    &perUser,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	promoRepo := NewPromoCodeRepository(db)
	usageRepo := NewPromoCodeUsageRepository(db)

	const workers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			<-start
			_ = db.Transaction(func(tx *gorm.DB) error {
				locked, err := promoRepo.WithTx(tx).GetByIDForUpdate(promo.ID)
				if err != nil || locked == nil {
					return err
				}
				count, err := usageRepo.WithTx(tx).CountByUser(locked.ID, 42)
				if err != nil {
					return err
				}
				if count >= int64(*locked.PerUserLimit) {
					return nil
				}
				return usageRepo.WithTx(tx).Create(&models.PromoCodeUsage{
					PromoCodeID: locked.ID,
					UserID:      42,
					OrderID:     orderID,
					UsedAt:      time.Now(),
				})
			})
		}(uint(i + 1))
	}
	close(start)
	wg.Wait()

	count, err := usageRepo.CountByUser(promo.ID, 42)
	if err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("per-user limit 1 should allow exactly one usage, got %d", count)
	}
}
