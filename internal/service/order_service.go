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

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	db             *gorm.DB
	orderRepo      repository.OrderRepository
	outboxRepo     repository.OutboxRepository
	ledger         *StockLedger
	promo          *PromoService
	gateway        payment.Gateway
	queueClient    *queue.Client
	refundMaxRetry int
	refundTimeout  time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, outboxRepo repository.OutboxRepository, ledger *StockLedger, promo *PromoService, gateway payment.Gateway, queueClient *queue.Client, settings CheckoutSettings) *OrderService {
	refundTimeout := settings.PaymentTimeout
	if refundTimeout <= 0 {
		refundTimeout = 10 * time.Second
	}
	return &OrderService{
		db:             db,
		orderRepo:      orderRepo,
		outboxRepo:     outboxRepo,
		ledger:         ledger,
		promo:          promo,
		gateway:        gateway,
		queueClient:    queueClient,
		refundMaxRetry: settings.RefundMaxRetry,
		refundTimeout:  refundTimeout,
	}
}

// GetOrderByUser 获取用户订单
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUserOrderNo 按订单号获取用户订单
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrders 管理端订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetOrder 管理端订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus 管理端推进订单状态，取消走 CancelOrder
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, targetStatus string) (*models.Order, error) {
	target := strings.TrimSpace(targetStatus)
	if !isKnownOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	if target == constants.OrderStatusCanceled {
		return s.CancelOrder(ctx, orderID)
	}
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return order, nil
	}
	if !isOrderTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}
	now := time.Now()
	rows, err := s.orderRepo.UpdateStatus(order.ID, []string{order.Status}, target, map[string]interface{}{
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderStatusInvalid
	}
	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", target,
	)
	order.Status = target
	order.UpdatedAt = now
	return order, nil
}

// CancelOrder 取消订单：回补库存、撤销优惠码核销、写入事件并退款
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !isOrderTransitionAllowed(order.Status, constants.OrderStatusCanceled) {
		return nil, ErrOrderStatusInvalid
	}
	fromStatus := order.Status
	now := time.Now()
	productIDs := make([]uint, 0, len(order.Items))

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, []string{fromStatus}, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderStatusInvalid
		}
		ledger := s.ledger.WithTx(tx)
		for _, item := range order.Items {
			if err := ledger.Restock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			productIDs = append(productIDs, item.ProductID)
		}
		if s.promo != nil {
			if _, err := s.promo.Revoke(tx, order.ID); err != nil {
				return err
			}
		}
		order.Status = constants.OrderStatusCanceled
		order.CanceledAt = &now
		order.UpdatedAt = now
		return insertOutboxEvent(s.outboxRepo.WithTx(tx), constants.TopicOrderCanceled, order.OrderNo, buildOrderEvent(order, now))
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateSnapshots(ctx, productIDs...)
	logger.Infow("order_canceled",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", fromStatus,
		"items", len(order.Items),
	)
	s.refund(ctx, order)
	return order, nil
}

func (s *OrderService) refund(ctx context.Context, order *models.Order) {
	if strings.TrimSpace(order.PaymentRef) == "" || !order.TotalAmount.IsPositive() {
		return
	}
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refundTimeout)
	defer cancel()
	ok, err := s.gateway.Refund(refundCtx, order.TotalAmount, order.PaymentRef)
	if err == nil && ok {
		return
	}
	logger.Warnw("order_cancel_refund_failed",
		"order_id", order.ID,
		"transaction_id", order.PaymentRef,
		"error", err,
	)
	payload := queue.PaymentRefundPayload{
		AttemptID:     order.AttemptID,
		OrderNo:       order.OrderNo,
		TransactionID: order.PaymentRef,
		Amount:        order.TotalAmount.String(),
		Currency:      order.Currency,
		Reason:        "order_canceled",
	}
	if err := s.queueClient.EnqueuePaymentRefund(payload, s.refundMaxRetry); err != nil {
		logger.Errorw("order_cancel_refund_enqueue_failed", "order_id", order.ID, "error", err)
	}
}
