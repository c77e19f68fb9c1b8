package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/queue"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/shipping"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutSettings 结算参数
type CheckoutSettings struct {
	Currency       string
	ReservationTTL time.Duration
	PaymentTimeout time.Duration
	RefundMaxRetry int
}

// CheckoutDeps 结算服务依赖
type CheckoutDeps struct {
	DB              *gorm.DB
	CartRepo        repository.CartRepository
	OrderRepo       repository.OrderRepository
	ReservationRepo repository.StockReservationRepository
	OutboxRepo      repository.OutboxRepository
	Ledger          *StockLedger
	Promo           *PromoService
	Shipping        shipping.Resolver
	Gateway         payment.Gateway
	QueueClient     *queue.Client
	Metrics         *metrics.Metrics
	Recovery        *ChargeRecovery
}

// ShippingAddress 收货信息
type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Zip     string `json:"zip"`
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID       uint
	PromoCode    string
	PaymentToken string
	Shipping     ShippingAddress
}

// QuoteLine 报价行，单价取自当前商品价格
type QuoteLine struct {
	ProductID  uint         `json:"product_id"`
	Title      string       `json:"title"`
	UnitPrice  models.Money `json:"unit_price"`
	Quantity   int          `json:"quantity"`
	TotalPrice models.Money `json:"total_price"`
}

// CheckoutQuote 结算报价
type CheckoutQuote struct {
	Lines          []QuoteLine    `json:"lines"`
	Currency       string         `json:"currency"`
	Subtotal       models.Money   `json:"subtotal"`
	ShippingCost   models.Money   `json:"shipping_cost"`
	DiscountAmount models.Money   `json:"discount_amount"`
	TotalAmount    models.Money   `json:"total_amount"`
	Promo          *PromoDecision `json:"promo,omitempty"`
}

// CheckoutService 结算编排服务
type CheckoutService struct {
	db              *gorm.DB
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	reservationRepo repository.StockReservationRepository
	outboxRepo      repository.OutboxRepository
	ledger          *StockLedger
	promo           *PromoService
	shipping        shipping.Resolver
	gateway         payment.Gateway
	queueClient     *queue.Client
	metrics         *metrics.Metrics
	recovery        *ChargeRecovery
	settings        CheckoutSettings
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(deps CheckoutDeps, settings CheckoutSettings) *CheckoutService {
	if strings.TrimSpace(settings.Currency) == "" {
		settings.Currency = constants.DefaultCurrency
	}
	if settings.ReservationTTL <= 0 {
		settings.ReservationTTL = 10 * time.Minute
	}
	if settings.PaymentTimeout <= 0 {
		settings.PaymentTimeout = 10 * time.Second
	}
	recovery := deps.Recovery
	if recovery == nil {
		recovery = NewChargeRecovery(deps.ReservationRepo, deps.Gateway, deps.QueueClient, settings.PaymentTimeout, settings.RefundMaxRetry)
	}
	return &CheckoutService{
		db:              deps.DB,
		cartRepo:        deps.CartRepo,
		orderRepo:       deps.OrderRepo,
		reservationRepo: deps.ReservationRepo,
		outboxRepo:      deps.OutboxRepo,
		ledger:          deps.Ledger,
		promo:           deps.Promo,
		shipping:        deps.Shipping,
		gateway:         deps.Gateway,
		queueClient:     deps.QueueClient,
		metrics:         deps.Metrics,
		recovery:        recovery,
		settings:        settings,
	}
}

// Preview 计算报价，不预占库存也不扣款
func (s *CheckoutService) Preview(ctx context.Context, input CheckoutInput) (*CheckoutQuote, error) {
	lines, err := s.loadLines(input.UserID)
	if err != nil {
		return nil, err
	}
	quote, err := s.price(ctx, input, lines)
	if err != nil {
		return nil, normalizeCanceled(err)
	}
	return quote, nil
}

// Checkout 将购物车转为订单
// Start -> CartLoaded -> Priced -> StockReserved -> PaymentSettled -> Committed，任一步失败进入 Aborted
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	attemptID := uuid.NewString()
	run := newCheckoutRun(attemptID, input.UserID, s.metrics)
	log := logger.SW("attempt_id", attemptID, "user_id", input.UserID)

	lines, err := s.loadLines(input.UserID)
	if err != nil {
		return nil, run.abort(err)
	}
	run.advance(CheckoutCartLoaded)

	quote, err := s.price(ctx, input, lines)
	if err != nil {
		return nil, run.abort(normalizeCanceled(err))
	}
	run.advance(CheckoutPriced)

	holds, err := s.ledger.Hold(ctx, attemptID, toStockLines(lines), s.settings.ReservationTTL)
	if err != nil {
		return nil, run.abort(normalizeCanceled(err))
	}
	s.scheduleReservationExpiry(attemptID)
	run.advance(CheckoutStockReserved)
	log.Infow("checkout_stock_reserved", "lines", len(holds), "total", quote.TotalAmount.String())

	charge, err := s.settle(ctx, attemptID, input, quote)
	if err != nil {
		s.release(ctx, attemptID, "payment_failed")
		return nil, run.abort(err)
	}
	recorded := charge != nil && s.recovery.Record(attemptID, charge.TransactionID, quote.TotalAmount, quote.Currency)
	run.advance(CheckoutPaymentSettled)

	order, err := s.commit(attemptID, input, quote, len(holds), charge)
	if err != nil {
		s.compensateCharge(ctx, attemptID, quote, charge, recorded)
		s.release(ctx, attemptID, "commit_failed")
		return nil, run.abort(err)
	}
	run.advance(CheckoutCommitted)
	log.Infow("checkout_committed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total", order.TotalAmount.String(),
		"payment_ref", order.PaymentRef,
	)

	if err := s.queueClient.EnqueueOrderCommitted(queue.OrderCommittedPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		UserID:  order.UserID,
	}); err != nil {
		log.Warnw("checkout_enqueue_order_committed_failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *CheckoutService) loadLines(userID uint) ([]QuoteLine, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	lines := make([]QuoteLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.Product == nil || !item.Product.IsActive {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		lines = append(lines, QuoteLine{
			ProductID:  item.ProductID,
			Title:      item.Product.Title,
			UnitPrice:  item.Product.Price,
			Quantity:   item.Quantity,
			TotalPrice: item.Product.Price.MulQty(item.Quantity),
		})
	}
	return lines, nil
}

// price 运费按优惠前小计计算，包邮码强制运费为 0，应付总额不低于 0
func (s *CheckoutService) price(ctx context.Context, input CheckoutInput, lines []QuoteLine) (*CheckoutQuote, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice.Decimal)
	}
	quote := &CheckoutQuote{
		Lines:          lines,
		Currency:       s.settings.Currency,
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		ShippingCost:   models.NewMoneyFromDecimal(decimal.Zero),
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
	}

	if strings.TrimSpace(input.PromoCode) != "" {
		decision, err := s.promo.Validate(ctx, input.PromoCode, input.UserID, quote.Subtotal)
		if err != nil {
			return nil, err
		}
		quote.Promo = decision
		quote.DiscountAmount = decision.Discount
	}

	if quote.Promo == nil || !quote.Promo.FreeShipping {
		rate, err := s.shipping.Rate(ctx, input.Shipping.Region, quote.Subtotal)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrShippingUnavailable, err)
		}
		quote.ShippingCost = rate
	}

	total := quote.Subtotal.Decimal.Add(quote.ShippingCost.Decimal).Sub(quote.DiscountAmount.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}
	quote.TotalAmount = models.NewMoneyFromDecimal(total)
	return quote, nil
}

// settle 扣款仅调用一次，不做重试
func (s *CheckoutService) settle(ctx context.Context, attemptID string, input CheckoutInput, quote *CheckoutQuote) (*payment.ChargeResult, error) {
	if !quote.TotalAmount.IsPositive() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckoutCanceled, err)
	}
	chargeCtx, cancel := context.WithTimeout(ctx, s.settings.PaymentTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, payment.ChargeRequest{
		AttemptID:   attemptID,
		UserID:      input.UserID,
		Amount:      quote.TotalAmount,
		Currency:    quote.Currency,
		Token:       input.PaymentToken,
		Description: fmt.Sprintf("bookstore checkout %s", attemptID),
	})
	if err == nil {
		if result == nil || strings.TrimSpace(result.TransactionID) == "" {
			return nil, fmt.Errorf("%w: empty transaction", ErrPaymentDeclined)
		}
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckoutCanceled, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || chargeCtx.Err() != nil {
		logger.Warnw("checkout_payment_timeout", "attempt_id", attemptID, "timeout", s.settings.PaymentTimeout)
		return nil, ErrPaymentTimeout
	}
	return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
}

// commit 单事务内：消耗预占、写订单与明细、核销优惠码、清理购物车、写入事件
func (s *CheckoutService) commit(attemptID string, input CheckoutInput, quote *CheckoutQuote, holdCount int, charge *payment.ChargeResult) (*models.Order, error) {
	now := time.Now()
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		AttemptID:       attemptID,
		UserID:          input.UserID,
		OrderDate:       now,
		Status:          constants.OrderStatusPaid,
		Currency:        quote.Currency,
		Subtotal:        quote.Subtotal,
		ShippingCost:    quote.ShippingCost,
		DiscountAmount:  quote.DiscountAmount,
		TotalAmount:     quote.TotalAmount,
		ShippingRegion:  strings.TrimSpace(input.Shipping.Region),
		ShippingName:    strings.TrimSpace(input.Shipping.Name),
		ShippingPhone:   strings.TrimSpace(input.Shipping.Phone),
		ShippingAddress: strings.TrimSpace(input.Shipping.Address),
		ShippingCity:    strings.TrimSpace(input.Shipping.City),
		ShippingZip:     strings.TrimSpace(input.Shipping.Zip),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if quote.Promo != nil {
		order.PromoCode = quote.Promo.Code
		order.DiscountPercent = quote.Promo.DiscountPercent
		order.FreeShipping = quote.Promo.FreeShipping
	}
	if charge != nil {
		order.PaymentRef = charge.TransactionID
	}
	items := make([]models.OrderItem, 0, len(quote.Lines))
	productIDs := make([]uint, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			ProductID:  line.ProductID,
			Title:      line.Title,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			TotalPrice: line.TotalPrice,
			CreatedAt:  now,
		})
		productIDs = append(productIDs, line.ProductID)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return err
		}
		rows, err := s.reservationRepo.WithTx(tx).ConsumeByAttempt(attemptID, order.ID)
		if err != nil {
			return err
		}
		if int(rows) != holdCount {
			return ErrReservationExpired
		}
		if quote.Promo != nil {
			if err := s.promo.Redeem(tx, quote.Promo, input.UserID, order.ID, now); err != nil {
				return err
			}
		}
		if err := s.cartRepo.WithTx(tx).DeleteByUserAndProducts(input.UserID, productIDs); err != nil {
			return err
		}
		return insertOutboxEvent(s.outboxRepo.WithTx(tx), constants.TopicOrderCommitted, order.OrderNo, buildOrderEvent(order, now))
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// compensateCharge 提交失败后退款，与过期回收竞争认领同一笔扣款
func (s *CheckoutService) compensateCharge(ctx context.Context, attemptID string, quote *CheckoutQuote, charge *payment.ChargeResult, recorded bool) {
	if charge == nil {
		return
	}
	s.recovery.refundClaimed(ctx, orphanedCharge{
		AttemptID:     attemptID,
		TransactionID: charge.TransactionID,
		Amount:        quote.TotalAmount,
		Currency:      quote.Currency,
	}, recorded, "checkout_commit_failed")
}

func (s *CheckoutService) release(ctx context.Context, attemptID, reason string) {
	released, err := s.ledger.ReleaseAttempt(context.WithoutCancel(ctx), attemptID)
	if err != nil {
		logger.Errorw("checkout_release_failed", "attempt_id", attemptID, "reason", reason, "error", err)
		return
	}
	s.metrics.ReservationReleased(reason, released)
}

func (s *CheckoutService) scheduleReservationExpiry(attemptID string) {
	err := s.queueClient.EnqueueReservationExpire(queue.ReservationExpirePayload{AttemptID: attemptID}, s.settings.ReservationTTL)
	if err != nil {
		logger.Warnw("checkout_enqueue_reservation_expire_failed", "attempt_id", attemptID, "error", err)
	}
}

func toStockLines(lines []QuoteLine) []StockLine {
	out := make([]StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, StockLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

func normalizeCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCheckoutCanceled, err)
	}
	return err
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrStockConflict):
		return "stock_conflict"
	case errors.Is(err, ErrInvalidPromo):
		return "promo_rejected"
	case errors.Is(err, ErrPaymentTimeout):
		return "payment_timeout"
	case errors.Is(err, ErrPaymentDeclined):
		return "payment_declined"
	case errors.Is(err, ErrCheckoutCanceled):
		return "canceled"
	case errors.Is(err, ErrReservationExpired):
		return "reservation_expired"
	default:
		return "error"
	}
}
