package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/payment/mock"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/shipping"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateDB(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ISBN:         fmt.Sprintf("978%010d", time.Now().UnixNano()%10000000000),
		Title:        title,
		Price:        models.MustMoney(price),
		StockQty:     stock,
		InitialStock: stock,
		IsActive:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, userID, productID uint, quantity int) {
	t.Helper()
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := repository.NewCartRepository(db).Upsert(item); err != nil {
		t.Fatalf("seed cart item failed: %v", err)
	}
}

func loadStock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.StockQty
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var total int64
	if err := db.Model(model).Count(&total).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return total
}

func newTestLedger(db *gorm.DB) *StockLedger {
	return NewStockLedger(
		db,
		repository.NewProductRepository(db),
		repository.NewStockReservationRepository(db),
		config.InventoryConfig{CASMaxAttempts: 3, CASBackoffMillis: 1},
		metrics.New(),
	)
}

// checkoutFixture 结算相关服务的测试装配
type checkoutFixture struct {
	db       *gorm.DB
	gateway  *mock.Gateway
	ledger   *StockLedger
	promo    *PromoService
	checkout *CheckoutService
	orders   *OrderService
}

type fixtureOption func(*CheckoutDeps, *CheckoutSettings)

func withGateway(gateway payment.Gateway) fixtureOption {
	return func(deps *CheckoutDeps, _ *CheckoutSettings) { deps.Gateway = gateway }
}

func withPaymentTimeout(timeout time.Duration) fixtureOption {
	return func(_ *CheckoutDeps, settings *CheckoutSettings) { settings.PaymentTimeout = timeout }
}

func newCheckoutFixture(t *testing.T, gatewayCfg mock.Config, opts ...fixtureOption) *checkoutFixture {
	t.Helper()
	db := openServiceTestDB(t)
	gateway, err := mock.New(gatewayCfg)
	if err != nil {
		t.Fatalf("create mock gateway failed: %v", err)
	}
	resolver, err := shipping.NewTableResolver(config.ShippingConfig{
		DefaultRate: "5.00",
		FreeOver:    "100.00",
		Regions: map[string]config.RegionRate{
			"intl": {Rate: "20.00", FreeOver: "500.00"},
		},
	})
	if err != nil {
		t.Fatalf("create shipping resolver failed: %v", err)
	}

	ledger := newTestLedger(db)
	promo := NewPromoService(repository.NewPromoCodeRepository(db), repository.NewPromoCodeUsageRepository(db))
	deps := CheckoutDeps{
		DB:              db,
		CartRepo:        repository.NewCartRepository(db),
		OrderRepo:       repository.NewOrderRepository(db),
		ReservationRepo: repository.NewStockReservationRepository(db),
		OutboxRepo:      repository.NewOutboxRepository(db),
		Ledger:          ledger,
		Promo:           promo,
		Shipping:        resolver,
		Gateway:         gateway,
		Metrics:         metrics.New(),
	}
	settings := CheckoutSettings{
		Currency:       "USD",
		ReservationTTL: time.Minute,
		PaymentTimeout: 2 * time.Second,
		RefundMaxRetry: 3,
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}
	return &checkoutFixture{
		db:       db,
		gateway:  gateway,
		ledger:   ledger,
		promo:    promo,
		checkout: NewCheckoutService(deps, settings),
		orders:   NewOrderService(db, deps.OrderRepo, deps.OutboxRepo, ledger, promo, deps.Gateway, nil, settings),
	}
}

func (f *checkoutFixture) seedPromo(t *testing.T, input CreatePromoCodeInput) *models.PromoCode {
	t.Helper()
	promo, err := f.promo.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	return promo
}

func intPtr(v int) *int { return &v }

func moneyPtr(raw string) *models.Money {
	m := models.MustMoney(raw)
	return &m
}
