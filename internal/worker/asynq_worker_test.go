package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/payment/mock"
	"github.com/bookstore-next/internal/provider"
	"github.com/bookstore-next/internal/queue"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*gorm.DB, *Consumer) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	gateway, err := mock.New(mock.Config{})
	if err != nil {
		t.Fatalf("create mock gateway failed: %v", err)
	}
	reservationRepo := repository.NewStockReservationRepository(db)
	ledger := service.NewStockLedger(
		db,
		repository.NewProductRepository(db),
		reservationRepo,
		config.InventoryConfig{CASMaxAttempts: 3, CASBackoffMillis: 1},
		nil,
	)
	container := &provider.Container{
		Config:               &config.Config{},
		DB:                   db,
		Gateway:              gateway,
		StockReservationRepo: reservationRepo,
		StockLedger:          ledger,
		ChargeRecovery:       service.NewChargeRecovery(reservationRepo, gateway, nil, time.Second, 3),
	}
	return db, NewConsumer(container)
}

func seedWorkerProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ISBN:         fmt.Sprintf("978%010d", time.Now().UnixNano()%10000000000),
		Title:        "The Go Programming Language",
		Price:        models.MustMoney("40.00"),
		StockQty:     stock,
		InitialStock: stock,
		IsActive:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func stockOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.StockQty
}

func mustTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(taskType, body)
}

func TestHandleReservationExpireReleasesHeldStock(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	product := seedWorkerProduct(t, db, 5)
	ctx := context.Background()

	lines := []service.StockLine{{ProductID: product.ID, Quantity: 3}}
	if _, err := consumer.StockLedger.Hold(ctx, "attempt-crashed", lines, time.Minute); err != nil {
		t.Fatalf("hold stock failed: %v", err)
	}
	if got := stockOf(t, db, product.ID); got != 2 {
		t.Fatalf("stock after hold want 2 got %d", got)
	}

	task := mustTask(t, queue.TaskReservationExpire, queue.ReservationExpirePayload{AttemptID: "attempt-crashed"})
	if err := consumer.handleReservationExpire(ctx, task); err != nil {
		t.Fatalf("handle reservation expire failed: %v", err)
	}
	if got := stockOf(t, db, product.ID); got != 5 {
		t.Fatalf("stock after expire want 5 got %d", got)
	}

	// 重复投递不得重复回补
	if err := consumer.handleReservationExpire(ctx, task); err != nil {
		t.Fatalf("replay reservation expire failed: %v", err)
	}
	if got := stockOf(t, db, product.ID); got != 5 {
		t.Fatalf("replayed expire must not restock twice, got %d", got)
	}
}

func TestHandleReservationExpireInvalidPayload(t *testing.T) {
	_, consumer := setupWorkerTest(t)
	if err := consumer.handleReservationExpire(context.Background(), asynq.NewTask(queue.TaskReservationExpire, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	task := mustTask(t, queue.TaskReservationExpire, queue.ReservationExpirePayload{})
	if err := consumer.handleReservationExpire(context.Background(), task); err != nil {
		t.Fatalf("empty attempt id should be skipped, got %v", err)
	}
}

func TestHandlePaymentRefund(t *testing.T) {
	_, consumer := setupWorkerTest(t)
	gateway := consumer.Gateway.(*mock.Gateway)
	ctx := context.Background()

	charge, err := gateway.Charge(ctx, payment.ChargeRequest{AttemptID: "a1", Amount: models.MustMoney("25.00"), Currency: "USD"})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}

	task := mustTask(t, queue.TaskPaymentRefund, queue.PaymentRefundPayload{
		AttemptID:     "a1",
		TransactionID: charge.TransactionID,
		Amount:        "25.00",
		Currency:      "USD",
		Reason:        "checkout_commit_failed",
	})
	if err := consumer.handlePaymentRefund(ctx, task); err != nil {
		t.Fatalf("handle refund failed: %v", err)
	}
	refunds := gateway.Refunds()
	if len(refunds) != 1 || refunds[0].Amount.String() != "25.00" {
		t.Fatalf("unexpected refunds: %+v", refunds)
	}

	gateway.FailRefund = true
	if err := consumer.handlePaymentRefund(ctx, task); err == nil {
		t.Fatalf("gateway failure must surface for retry")
	}

	bad := mustTask(t, queue.TaskPaymentRefund, queue.PaymentRefundPayload{TransactionID: "x", Amount: "abc"})
	if err := consumer.handlePaymentRefund(ctx, bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid amount should skip retry, got %v", err)
	}
}

func TestSweepExpiredReservations(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	product := seedWorkerProduct(t, db, 4)
	ctx := context.Background()

	lines := []service.StockLine{{ProductID: product.ID, Quantity: 4}}
	if _, err := consumer.StockLedger.Hold(ctx, "attempt-stale", lines, -time.Second); err != nil {
		t.Fatalf("hold stock failed: %v", err)
	}
	released, err := SweepExpiredReservations(ctx, consumer, 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if released != 1 {
		t.Fatalf("released want 1 got %d", released)
	}
	if got := stockOf(t, db, product.ID); got != 4 {
		t.Fatalf("stock after sweep want 4 got %d", got)
	}

	if _, err := SweepExpiredReservations(ctx, &Consumer{}, 10); err == nil {
		t.Fatalf("sweep without ledger should fail")
	}
}

// chargeCrashedAttempt 预占并扣款后不提交，模拟结算进程在扣款后退出
func chargeCrashedAttempt(t *testing.T, consumer *Consumer, attemptID string, productID uint, ttl time.Duration) *payment.ChargeResult {
	t.Helper()
	ctx := context.Background()
	lines := []service.StockLine{{ProductID: productID, Quantity: 2}}
	if _, err := consumer.StockLedger.Hold(ctx, attemptID, lines, ttl); err != nil {
		t.Fatalf("hold stock failed: %v", err)
	}
	amount := models.MustMoney("80.00")
	charge, err := consumer.Gateway.Charge(ctx, payment.ChargeRequest{AttemptID: attemptID, Amount: amount, Currency: "USD"})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !consumer.ChargeRecovery.Record(attemptID, charge.TransactionID, amount, "USD") {
		t.Fatalf("record charge failed")
	}
	return charge
}

func TestHandleReservationExpireRefundsOrphanedCharge(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	gateway := consumer.Gateway.(*mock.Gateway)
	product := seedWorkerProduct(t, db, 5)
	ctx := context.Background()
	charge := chargeCrashedAttempt(t, consumer, "attempt-charged", product.ID, time.Minute)

	task := mustTask(t, queue.TaskReservationExpire, queue.ReservationExpirePayload{AttemptID: "attempt-charged"})
	if err := consumer.handleReservationExpire(ctx, task); err != nil {
		t.Fatalf("handle reservation expire failed: %v", err)
	}
	if got := stockOf(t, db, product.ID); got != 5 {
		t.Fatalf("stock after expire want 5 got %d", got)
	}
	refunds := gateway.Refunds()
	if len(refunds) != 1 || refunds[0].TransactionID != charge.TransactionID || refunds[0].Amount.String() != "80.00" {
		t.Fatalf("expected one refund of the orphaned charge, got %+v", refunds)
	}

	if err := consumer.handleReservationExpire(ctx, task); err != nil {
		t.Fatalf("replay reservation expire failed: %v", err)
	}
	if _, err := SweepExpiredReservations(ctx, consumer, 10); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := len(gateway.Refunds()); got != 1 {
		t.Fatalf("orphaned charge must be refunded once, got %d", got)
	}
}

func TestSweepExpiredReservationsRefundsOrphanedCharge(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	gateway := consumer.Gateway.(*mock.Gateway)
	product := seedWorkerProduct(t, db, 5)
	ctx := context.Background()
	charge := chargeCrashedAttempt(t, consumer, "attempt-stale-charged", product.ID, -time.Second)

	released, err := SweepExpiredReservations(ctx, consumer, 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if released != 1 {
		t.Fatalf("released want 1 got %d", released)
	}
	if got := stockOf(t, db, product.ID); got != 5 {
		t.Fatalf("stock after sweep want 5 got %d", got)
	}
	refunds := gateway.Refunds()
	if len(refunds) != 1 || refunds[0].TransactionID != charge.TransactionID {
		t.Fatalf("expected one refund of the orphaned charge, got %+v", refunds)
	}

	if _, err := SweepExpiredReservations(ctx, consumer, 10); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if got := len(gateway.Refunds()); got != 1 {
		t.Fatalf("second sweep must not refund again, got %d", got)
	}
}
