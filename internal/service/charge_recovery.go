package service

import (
	"context"
	"strings"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/queue"
	"github.com/bookstore-next/internal/repository"
)

// ChargeRecovery 退还已扣款但订单未落库的支付
// 扣款成功后交易号登记在预占记录上，提交失败、过期任务与清扫任务通过 ClaimCharge 竞争认领，只有认领成功的一方退款
type ChargeRecovery struct {
	reservationRepo repository.StockReservationRepository
	gateway         payment.Gateway
	queueClient     *queue.Client
	timeout         time.Duration
	refundMaxRetry  int
}

// NewChargeRecovery 创建扣款回收服务
func NewChargeRecovery(reservationRepo repository.StockReservationRepository, gateway payment.Gateway, queueClient *queue.Client, timeout time.Duration, refundMaxRetry int) *ChargeRecovery {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChargeRecovery{
		reservationRepo: reservationRepo,
		gateway:         gateway,
		queueClient:     queueClient,
		timeout:         timeout,
		refundMaxRetry:  refundMaxRetry,
	}
}

// orphanedCharge 待退款的扣款
type orphanedCharge struct {
	AttemptID     string
	TransactionID string
	Amount        models.Money
	Currency      string
}

// Record 登记扣款，返回是否至少登记到一条预占
func (r *ChargeRecovery) Record(attemptID string, transactionID string, amount models.Money, currency string) bool {
	rows, err := r.reservationRepo.RecordCharge(attemptID, transactionID, amount, currency)
	if err != nil {
		logger.Warnw("charge_record_failed", "attempt_id", attemptID, "transaction_id", transactionID, "error", err)
		return false
	}
	return rows > 0
}

// refundClaimed 认领成功才退款；未登记过的扣款直接退款
func (r *ChargeRecovery) refundClaimed(ctx context.Context, charge orphanedCharge, recorded bool, reason string) bool {
	if recorded {
		rows, err := r.reservationRepo.ClaimCharge(charge.AttemptID, charge.TransactionID)
		if err != nil {
			logger.Errorw("charge_claim_failed", "attempt_id", charge.AttemptID, "transaction_id", charge.TransactionID, "error", err)
			return false
		}
		if rows == 0 {
			logger.Debugw("charge_already_claimed", "attempt_id", charge.AttemptID, "transaction_id", charge.TransactionID)
			return false
		}
	}
	r.refund(ctx, charge, reason)
	return true
}

// refund 同步退款，失败则投递补偿任务
func (r *ChargeRecovery) refund(ctx context.Context, charge orphanedCharge, reason string) {
	if !charge.Amount.IsPositive() {
		return
	}
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	ok, err := r.gateway.Refund(refundCtx, charge.Amount, charge.TransactionID)
	if err == nil && ok {
		logger.Warnw("charge_refunded",
			"attempt_id", charge.AttemptID,
			"transaction_id", charge.TransactionID,
			"amount", charge.Amount.String(),
			"reason", reason,
		)
		return
	}
	logger.Errorw("charge_refund_failed",
		"attempt_id", charge.AttemptID,
		"transaction_id", charge.TransactionID,
		"amount", charge.Amount.String(),
		"reason", reason,
		"error", err,
	)
	payload := queue.PaymentRefundPayload{
		AttemptID:     charge.AttemptID,
		TransactionID: charge.TransactionID,
		Amount:        charge.Amount.String(),
		Currency:      charge.Currency,
		Reason:        reason,
	}
	if qErr := r.queueClient.EnqueuePaymentRefund(payload, r.refundMaxRetry); qErr != nil {
		logger.Errorw("charge_refund_enqueue_failed", "attempt_id", charge.AttemptID, "error", qErr)
	}
}

// RefundAttempt 退还某结算尝试在预占释放后遗留的扣款
func (r *ChargeRecovery) RefundAttempt(ctx context.Context, attemptID string) (bool, error) {
	reservations, err := r.reservationRepo.ListByAttempt(attemptID, "")
	if err != nil {
		return false, err
	}
	charge, ok := unclaimedCharge(reservations)
	if !ok {
		return false, nil
	}
	return r.refundClaimed(ctx, charge, true, "reservation_expired"), nil
}

// RefundOrphaned 扫描已释放且扣款未认领的预占，按结算尝试退款
func (r *ChargeRecovery) RefundOrphaned(ctx context.Context, limit int) (int, error) {
	reservations, err := r.reservationRepo.ListUnclaimedReleased(limit)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(reservations))
	refunded := 0
	for _, reservation := range reservations {
		if _, done := seen[reservation.AttemptID]; done {
			continue
		}
		seen[reservation.AttemptID] = struct{}{}
		if err := ctx.Err(); err != nil {
			return refunded, err
		}
		charge := orphanedCharge{
			AttemptID:     reservation.AttemptID,
			TransactionID: reservation.PaymentRef,
			Amount:        reservation.ChargedAmount,
			Currency:      reservation.Currency,
		}
		if r.refundClaimed(ctx, charge, true, "reservation_expired") {
			refunded++
		}
	}
	return refunded, nil
}

// unclaimedCharge 仅当预占已全部离开 held 且无订单消耗时才视为遗留扣款
func unclaimedCharge(reservations []models.StockReservation) (orphanedCharge, bool) {
	var charge orphanedCharge
	found := false
	for _, reservation := range reservations {
		if reservation.Status != constants.ReservationStatusReleased {
			return orphanedCharge{}, false
		}
		if !found && strings.TrimSpace(reservation.PaymentRef) != "" {
			charge = orphanedCharge{
				AttemptID:     reservation.AttemptID,
				TransactionID: reservation.PaymentRef,
				Amount:        reservation.ChargedAmount,
				Currency:      reservation.Currency,
			}
			found = true
		}
	}
	return charge, found
}
