package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment/mock"
	"github.com/bookstore-next/internal/repository"
)

func checkoutOneOrder(t *testing.T, f *checkoutFixture, userID uint, product *models.Product, quantity int) *models.Order {
	t.Helper()
	seedCartItem(t, f.db, userID, product.ID, quantity)
	order, err := f.checkout.Checkout(context.Background(), CheckoutInput{UserID: userID, Shipping: ShippingAddress{Region: "US"}})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func TestOrderStatusTransitions(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Status", "10.00", 5)
	order := checkoutOneOrder(t, f, 1, product, 1)
	ctx := context.Background()

	if _, err := f.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("paid -> delivered should be rejected, got %v", err)
	}
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusShipped, constants.OrderStatusDelivered} {
		updated, err := f.orders.UpdateOrderStatus(ctx, order.ID, status)
		if err != nil {
			t.Fatalf("update to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("status want %s got %s", status, updated.Status)
		}
	}
	if _, err := f.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusCanceled); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("delivered order cannot be canceled, got %v", err)
	}
	if _, err := f.orders.UpdateOrderStatus(ctx, order.ID, "bogus"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("unknown status should be rejected, got %v", err)
	}
}

func TestCancelOrderRestocksAndRefunds(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Cancel", "10.00", 5)
	order := checkoutOneOrder(t, f, 1, product, 2)
	if got := loadStock(t, f.db, product.ID); got != 3 {
		t.Fatalf("stock want 3 got %d", got)
	}

	canceled, err := f.orders.CancelOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("unexpected canceled order: %+v", canceled)
	}
	if got := loadStock(t, f.db, product.ID); got != 5 {
		t.Fatalf("stock want 5 got %d", got)
	}
	refunds := f.gateway.Refunds()
	if len(refunds) != 1 || refunds[0].TransactionID != order.PaymentRef {
		t.Fatalf("expected refund of %s, got %+v", order.PaymentRef, refunds)
	}
	var events int64
	if err := f.db.Model(&models.OutboxEvent{}).Where("topic = ?", constants.TopicOrderCanceled).Count(&events).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one cancel event, got %d", events)
	}

	if _, err := f.orders.CancelOrder(context.Background(), order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("second cancel should fail, got %v", err)
	}
	if got := loadStock(t, f.db, product.ID); got != 5 {
		t.Fatalf("second cancel must not restock again, got %d", got)
	}
}

func TestOrderQueriesAreScopedToUser(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Scoped", "10.00", 5)
	order := checkoutOneOrder(t, f, 1, product, 1)
	checkoutOneOrder(t, f, 2, product, 1)

	if _, err := f.orders.GetOrderByUser(order.ID, 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user should not see order, got %v", err)
	}
	got, err := f.orders.GetOrderByUserOrderNo(order.OrderNo, 1)
	if err != nil || got.ID != order.ID {
		t.Fatalf("lookup by order no failed: %v", err)
	}
	orders, total, err := f.orders.ListOrdersByUser(repository.OrderListFilter{UserID: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected one order for user 1, got total=%d len=%d", total, len(orders))
	}
	all, total, err := f.orders.ListOrders(repository.OrderListFilter{Page: 1, PageSize: 10})
	if err != nil || total != 2 || len(all) != 2 {
		t.Fatalf("admin list want 2 got total=%d err=%v", total, err)
	}
}

func TestCancelOrderRevokesPromoRedemption(t *testing.T) {
	f := newCheckoutFixture(t, mock.Config{})
	product := seedProduct(t, f.db, "Promo Cancel", "20.00", 5)
	promo := f.seedPromo(t, CreatePromoCodeInput{
		Code:             "ONCEONLY",
		Type:             constants.PromoTypePercentage,
		DiscountPercent:  10,
		GlobalUsageLimit: intPtr(1),
		PerUserLimit:     intPtr(1),
		IsActive:         true,
	})
	input := CheckoutInput{UserID: 3, PromoCode: "ONCEONLY", Shipping: ShippingAddress{Region: "US"}}

	seedCartItem(t, f.db, 3, product.ID, 1)
	order, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if got := countRows(t, f.db, &models.PromoCodeUsage{}); got != 1 {
		t.Fatalf("usage rows want 1 got %d", got)
	}

	if _, err := f.orders.CancelOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := countRows(t, f.db, &models.PromoCodeUsage{}); got != 0 {
		t.Fatalf("usage rows should be revoked, got %d", got)
	}
	var reloaded models.PromoCode
	if err := f.db.First(&reloaded, promo.ID).Error; err != nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	if reloaded.RemainingUses == nil || *reloaded.RemainingUses != 1 {
		t.Fatalf("remaining uses want 1 got %v", reloaded.RemainingUses)
	}

	seedCartItem(t, f.db, 3, product.ID, 1)
	if _, err := f.checkout.Checkout(context.Background(), input); err != nil {
		t.Fatalf("promo should be usable again after cancel: %v", err)
	}
}
