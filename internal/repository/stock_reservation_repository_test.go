package repository

import (
	"testing"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"
)

func TestReservationLifecycle(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewStockReservationRepository(db)
	now := time.Now()

	expired := &models.StockReservation{AttemptID: "a1", ProductID: 1, Quantity: 1, Status: constants.ReservationStatusHeld, ExpiresAt: now.Add(-time.Minute)}
	fresh := &models.StockReservation{AttemptID: "a2", ProductID: 1, Quantity: 2, Status: constants.ReservationStatusHeld, ExpiresAt: now.Add(time.Hour)}
	for _, r := range []*models.StockReservation{expired, fresh} {
		if err := repo.Create(r); err != nil {
			t.Fatalf("create reservation failed: %v", err)
		}
	}

	list, err := repo.ListExpiredHeld(now, 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != expired.ID {
		t.Fatalf("expected only expired reservation, got %+v", list)
	}

	if rows, _ := repo.TransitionStatus(expired.ID, constants.ReservationStatusHeld, constants.ReservationStatusReleased); rows != 1 {
		t.Fatalf("release should apply once")
	}
	if rows, _ := repo.TransitionStatus(expired.ID, constants.ReservationStatusHeld, constants.ReservationStatusReleased); rows != 0 {
		t.Fatalf("second release must be a no-op")
	}

	rows, err := repo.ConsumeByAttempt("a2", 42)
	if err != nil || rows != 1 {
		t.Fatalf("consume should apply, rows=%d err=%v", rows, err)
	}
	consumed, _ := repo.ListByAttempt("a2", constants.ReservationStatusConsumed)
	if len(consumed) != 1 || consumed[0].OrderID == nil || *consumed[0].OrderID != 42 {
		t.Fatalf("consumed reservation should reference order, got %+v", consumed)
	}
}

func TestReservationChargeClaimedOnce(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewStockReservationRepository(db)
	expires := time.Now().Add(time.Minute)

	for _, productID := range []uint{1, 2} {
		r := &models.StockReservation{AttemptID: "charged", ProductID: productID, Quantity: 1, Status: constants.ReservationStatusHeld, ExpiresAt: expires}
		if err := repo.Create(r); err != nil {
			t.Fatalf("create reservation failed: %v", err)
		}
	}

	rows, err := repo.RecordCharge("charged", "txn-1", models.MustMoney("18.50"), "USD")
	if err != nil || rows != 2 {
		t.Fatalf("record charge should tag both held rows, rows=%d err=%v", rows, err)
	}

	// 预占状态下不应出现在待退款列表
	pending, err := repo.ListUnclaimedReleased(10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("held rows must not be listed, got %+v err=%v", pending, err)
	}

	held, _ := repo.ListByAttempt("charged", constants.ReservationStatusHeld)
	for _, r := range held {
		if _, err := repo.TransitionStatus(r.ID, constants.ReservationStatusHeld, constants.ReservationStatusReleased); err != nil {
			t.Fatalf("release failed: %v", err)
		}
	}
	pending, err = repo.ListUnclaimedReleased(10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("released charged rows should be listed, got %d err=%v", len(pending), err)
	}
	if pending[0].PaymentRef != "txn-1" || pending[0].ChargedAmount.String() != "18.50" || pending[0].Currency != "USD" {
		t.Fatalf("unexpected charge record: %+v", pending[0])
	}

	if rows, _ := repo.ClaimCharge("charged", "txn-1"); rows != 2 {
		t.Fatalf("first claim should clear both rows, got %d", rows)
	}
	if rows, _ := repo.ClaimCharge("charged", "txn-1"); rows != 0 {
		t.Fatalf("second claim must be a no-op, got %d", rows)
	}
	pending, _ = repo.ListUnclaimedReleased(10)
	if len(pending) != 0 {
		t.Fatalf("claimed rows must not be listed, got %+v", pending)
	}
}
