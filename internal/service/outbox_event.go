package service

import (
	"encoding/json"
	"time"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"

	"github.com/google/uuid"
)

// OrderEventItem 订单事件明细
type OrderEventItem struct {
	ProductID uint         `json:"product_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

// OrderEvent 订单事件载荷
type OrderEvent struct {
	OrderID     uint             `json:"order_id"`
	OrderNo     string           `json:"order_no"`
	UserID      uint             `json:"user_id"`
	Status      string           `json:"status"`
	Currency    string           `json:"currency"`
	TotalAmount models.Money     `json:"total_amount"`
	PromoCode   string           `json:"promo_code,omitempty"`
	Items       []OrderEventItem `json:"items"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// PurchaseOrderReceivedEvent 采购到货事件载荷
type PurchaseOrderReceivedEvent struct {
	PurchaseOrderID uint                  `json:"purchase_order_id"`
	SupplierID      uint                  `json:"supplier_id"`
	Status          string                `json:"status"`
	Mode            string                `json:"mode"`
	ReceivedBy      uint                  `json:"received_by"`
	Lines           []ReceivedLineSummary `json:"lines"`
	OccurredAt      time.Time             `json:"occurred_at"`
}

// ReceivedLineSummary 单条明细的本次到货
type ReceivedLineSummary struct {
	ItemID    uint `json:"item_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func buildOrderEvent(order *models.Order, occurredAt time.Time) OrderEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderEventItem{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return OrderEvent{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		UserID:      order.UserID,
		Status:      order.Status,
		Currency:    order.Currency,
		TotalAmount: order.TotalAmount,
		PromoCode:   order.PromoCode,
		Items:       items,
		OccurredAt:  occurredAt,
	}
}

// insertOutboxEvent 与业务写入处于同一事务
func insertOutboxEvent(repo repository.OutboxRepository, topic, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return repo.Insert(&models.OutboxEvent{
		EventID: uuid.NewString(),
		Topic:   topic,
		Key:     key,
		Payload: string(body),
	})
}
