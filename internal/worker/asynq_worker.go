package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/provider"
	"github.com/bookstore-next/internal/queue"

	"github.com/hibiken/asynq"
)

// errRefundRejected 网关未确认退款，交由队列重试
var errRefundRejected = errors.New("refund not confirmed by gateway")

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskReservationExpire, c.handleReservationExpire)
	mux.HandleFunc(queue.TaskPaymentRefund, c.handlePaymentRefund)
	mux.HandleFunc(queue.TaskOrderCommitted, c.handleOrderCommitted)
	mux.HandleFunc(queue.TaskPurchaseOrderReceived, c.handlePurchaseOrderReceived)
}

// handleReservationExpire 结算进程异常退出时兜底释放预占并退还遗留扣款
func (c *Consumer) handleReservationExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.StockLedger == nil {
		logger.Debugw("worker_reservation_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReservationExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reservation_expire_unmarshal_failed", "error", err)
		return err
	}
	attemptID := strings.TrimSpace(payload.AttemptID)
	if attemptID == "" {
		logger.Debugw("worker_reservation_expire_skip_invalid_payload")
		return nil
	}
	released, err := c.StockLedger.ReleaseAttempt(ctx, attemptID)
	if err != nil {
		logger.Warnw("worker_reservation_expire_release_failed", "attempt_id", attemptID, "error", err)
		return err
	}
	if released > 0 {
		c.Metrics.ReservationReleased("expired", released)
		logger.Infow("worker_reservation_expire_released", "attempt_id", attemptID, "released", released)
	}
	if c.ChargeRecovery == nil {
		return nil
	}
	refunded, err := c.ChargeRecovery.RefundAttempt(ctx, attemptID)
	if err != nil {
		logger.Warnw("worker_reservation_expire_refund_failed", "attempt_id", attemptID, "error", err)
		return err
	}
	if refunded {
		logger.Infow("worker_reservation_expire_refunded", "attempt_id", attemptID)
	}
	return nil
}

// handlePaymentRefund 退款补偿，失败返回错误由 asynq 按退避重试
func (c *Consumer) handlePaymentRefund(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.Gateway == nil {
		logger.Debugw("worker_payment_refund_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentRefundPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_refund_unmarshal_failed", "error", err)
		return err
	}
	transactionID := strings.TrimSpace(payload.TransactionID)
	if transactionID == "" {
		logger.Warnw("worker_payment_refund_skip_invalid_payload", "attempt_id", payload.AttemptID)
		return nil
	}
	amount, err := models.NewMoneyFromString(payload.Amount)
	if err != nil {
		logger.Warnw("worker_payment_refund_invalid_amount", "attempt_id", payload.AttemptID, "amount", payload.Amount, "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if !amount.IsPositive() {
		return nil
	}
	ok, err := c.Gateway.Refund(ctx, amount, transactionID)
	if err != nil {
		logger.Warnw("worker_payment_refund_failed",
			"attempt_id", payload.AttemptID,
			"order_no", payload.OrderNo,
			"transaction_id", transactionID,
			"error", err,
		)
		return err
	}
	if !ok {
		logger.Warnw("worker_payment_refund_rejected", "attempt_id", payload.AttemptID, "transaction_id", transactionID)
		return errRefundRejected
	}
	logger.Infow("worker_payment_refund_done",
		"attempt_id", payload.AttemptID,
		"order_no", payload.OrderNo,
		"transaction_id", transactionID,
		"amount", amount.String(),
		"currency", payload.Currency,
		"reason", payload.Reason,
	)
	return nil
}

func (c *Consumer) handleOrderCommitted(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderCommittedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_committed_unmarshal_failed", "error", err)
		return err
	}
	logger.Infow("worker_order_committed",
		"order_id", payload.OrderID,
		"order_no", payload.OrderNo,
		"user_id", payload.UserID,
	)
	return nil
}

func (c *Consumer) handlePurchaseOrderReceived(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.PurchaseOrderReceivedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_purchase_order_received_unmarshal_failed", "error", err)
		return err
	}
	logger.Infow("worker_purchase_order_received",
		"purchase_order_id", payload.PurchaseOrderID,
		"status", payload.Status,
		"received_by", payload.ReceivedBy,
		"units", payload.Units,
	)
	return nil
}
