package service

import (
	"context"
	"testing"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/payment/mock"
)

// chargeHeldAttempt 模拟进程在扣款成功后、提交前退出
func chargeHeldAttempt(t *testing.T, f *checkoutFixture, attemptID string, productID uint, amount string) *payment.ChargeResult {
	t.Helper()
	ctx := context.Background()
	if _, err := f.ledger.Hold(ctx, attemptID, []StockLine{{ProductID: productID, Quantity: 2}}, time.Minute); err != nil {
		t.Fatalf("hold stock failed: %v", err)
	}
	charge, err := f.gateway.Charge(ctx, payment.ChargeRequest{AttemptID: attemptID, Amount: models.MustMoney(amount), Currency: "USD"})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !f.checkout.recovery.Record(attemptID, charge.TransactionID, models.MustMoney(amount), "USD") {
		t.Fatalf("charge should be recorded on held reservations")
	}
	return charge
}

func TestChargeRecoveryRefundsExpiredAttemptOnce(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Crash", "10.00", 5)
	ctx := context.Background()
	charge := chargeHeldAttempt(t, f, "attempt-crashed", product.ID, "25.00")

	// 预占仍在时不得退款
	refunded, err := f.checkout.recovery.RefundAttempt(ctx, "attempt-crashed")
	if err != nil || refunded {
		t.Fatalf("held attempt must not be refunded, refunded=%v err=%v", refunded, err)
	}

	if _, err := f.ledger.ReleaseAttempt(ctx, "attempt-crashed"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	refunded, err = f.checkout.recovery.RefundAttempt(ctx, "attempt-crashed")
	if err != nil || !refunded {
		t.Fatalf("released attempt should be refunded, refunded=%v err=%v", refunded, err)
	}
	refunds := f.gateway.Refunds()
	if len(refunds) != 1 || refunds[0].TransactionID != charge.TransactionID || refunds[0].Amount.String() != "25.00" {
		t.Fatalf("expected one refund of the orphaned charge, got %+v", refunds)
	}

	// 重复投递与清扫任务都不得再次退款
	if refunded, _ := f.checkout.recovery.RefundAttempt(ctx, "attempt-crashed"); refunded {
		t.Fatalf("replayed expire must not refund twice")
	}
	if n, err := f.checkout.recovery.RefundOrphaned(ctx, 10); err != nil || n != 0 {
		t.Fatalf("sweep after claim must not refund, n=%d err=%v", n, err)
	}
	if got := len(f.gateway.Refunds()); got != 1 {
		t.Fatalf("refund count want 1 got %d", got)
	}
	if got := loadStock(t, f.db, product.ID); got != 5 {
		t.Fatalf("stock want 5 got %d", got)
	}
}

func TestChargeRecoverySweepAndCommitFailureRefundOnce(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Race", "10.00", 5)
	ctx := context.Background()
	charge := chargeHeldAttempt(t, f, "attempt-raced", product.ID, "25.00")

	if _, err := f.ledger.ReleaseExpired(ctx, time.Now().Add(time.Hour), 10); err != nil {
		t.Fatalf("sweep release failed: %v", err)
	}
	n, err := f.checkout.recovery.RefundOrphaned(ctx, 10)
	if err != nil || n != 1 {
		t.Fatalf("sweep should refund one attempt, n=%d err=%v", n, err)
	}

	// 进程内提交失败后的补偿晚于清扫任务，不得重复退款
	quote := &CheckoutQuote{Currency: "USD", TotalAmount: models.MustMoney("25.00")}
	f.checkout.compensateCharge(ctx, "attempt-raced", quote, charge, true)
	if got := len(f.gateway.Refunds()); got != 1 {
		t.Fatalf("refund count want 1 got %d", got)
	}
}

func TestChargeRecoveryIgnoresCommittedOrders(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Kept", "12.50", 5)
	seedCartItem(t, f.db, 1, product.ID, 2)
	ctx := context.Background()

	order, err := f.checkout.Checkout(ctx, CheckoutInput{UserID: 1, Shipping: ShippingAddress{Region: "US"}})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	reservations, err := f.checkout.reservationRepo.ListByAttempt(order.AttemptID, constants.ReservationStatusConsumed)
	if err != nil || len(reservations) != 1 {
		t.Fatalf("expected consumed reservation, got %+v err=%v", reservations, err)
	}
	if reservations[0].PaymentRef != order.PaymentRef {
		t.Fatalf("consumed reservation should carry payment ref %q, got %q", order.PaymentRef, reservations[0].PaymentRef)
	}

	if refunded, _ := f.checkout.recovery.RefundAttempt(ctx, order.AttemptID); refunded {
		t.Fatalf("committed attempt must not be refunded")
	}
	if n, _ := f.checkout.recovery.RefundOrphaned(ctx, 10); n != 0 {
		t.Fatalf("committed attempt must not be swept, n=%d", n)
	}
	if got := len(f.gateway.Refunds()); got != 0 {
		t.Fatalf("no refund expected, got %d", got)
	}
}
