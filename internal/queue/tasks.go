package queue

import (
	"encoding/json"

	"github.com/bookstore-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskReservationExpire 预占过期释放任务
	TaskReservationExpire = constants.TaskReservationExpire
	// TaskPaymentRefund 退款补偿任务
	TaskPaymentRefund = constants.TaskPaymentRefund
	// TaskOrderCommitted 订单提交通知任务
	TaskOrderCommitted = constants.TaskOrderCommitted
	// TaskPurchaseOrderReceived 采购到货通知任务
	TaskPurchaseOrderReceived = constants.TaskPurchaseOrderReceived
)

// ReservationExpirePayload 预占过期任务载荷
type ReservationExpirePayload struct {
	AttemptID string `json:"attempt_id"`
}

// PaymentRefundPayload 退款补偿任务载荷
type PaymentRefundPayload struct {
	AttemptID     string `json:"attempt_id"`
	OrderNo       string `json:"order_no,omitempty"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
}

// OrderCommittedPayload 订单提交任务载荷
type OrderCommittedPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	UserID  uint   `json:"user_id"`
}

// PurchaseOrderReceivedPayload 采购到货任务载荷
type PurchaseOrderReceivedPayload struct {
	PurchaseOrderID uint   `json:"purchase_order_id"`
	Status          string `json:"status"`
	ReceivedBy      uint   `json:"received_by"`
	Units           int    `json:"units"`
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// NewReservationExpireTask 创建预占过期任务
func NewReservationExpireTask(payload ReservationExpirePayload) (*asynq.Task, error) {
	return newJSONTask(TaskReservationExpire, payload)
}

// NewPaymentRefundTask 创建退款补偿任务
func NewPaymentRefundTask(payload PaymentRefundPayload) (*asynq.Task, error) {
	return newJSONTask(TaskPaymentRefund, payload)
}

// NewOrderCommittedTask 创建订单提交通知任务
func NewOrderCommittedTask(payload OrderCommittedPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderCommitted, payload)
}

// NewPurchaseOrderReceivedTask 创建采购到货通知任务
func NewPurchaseOrderReceivedTask(payload PurchaseOrderReceivedPayload) (*asynq.Task, error) {
	return newJSONTask(TaskPurchaseOrderReceived, payload)
}
