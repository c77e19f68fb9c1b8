package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config 模拟网关配置
type Config struct {
	DeclineAbove string // 超过该金额拒付，空表示不限制
	DeclineToken string // 命中该 token 拒付
}

// RefundRecord 退款记录
type RefundRecord struct {
	TransactionID string
	Amount        models.Money
}

// Gateway 确定性模拟网关，用于开发与测试
type Gateway struct {
	declineAbove *decimal.Decimal
	declineToken string

	// Delay 模拟网关耗时，尊重 ctx 取消
	Delay time.Duration
	// FailRefund 为 true 时退款返回错误
	FailRefund bool

	mu      sync.Mutex
	charges map[string]models.Money
	refunds []RefundRecord
}

// New 创建模拟网关
func New(cfg Config) (*Gateway, error) {
	g := &Gateway{
		declineToken: strings.TrimSpace(cfg.DeclineToken),
		charges:      map[string]models.Money{},
	}
	if raw := strings.TrimSpace(cfg.DeclineAbove); raw != "" {
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid decline_above %q: %w", raw, err)
		}
		g.declineAbove = &limit
	}
	return g, nil
}

// Charge 扣款
func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.declineToken != "" && strings.TrimSpace(req.Token) == g.declineToken {
		return nil, fmt.Errorf("%w: card declined", payment.ErrDeclined)
	}
	if g.declineAbove != nil && req.Amount.Decimal.GreaterThan(*g.declineAbove) {
		return nil, fmt.Errorf("%w: amount exceeds limit", payment.ErrDeclined)
	}

	txnID := "mock_" + uuid.NewString()
	g.mu.Lock()
	g.charges[txnID] = req.Amount
	g.mu.Unlock()
	return &payment.ChargeResult{TransactionID: txnID, Status: "succeeded"}, nil
}

// Refund 退款
func (g *Gateway) Refund(ctx context.Context, amount models.Money, transactionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.FailRefund {
		return false, fmt.Errorf("%w: refund unavailable", payment.ErrRequestFailed)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.charges[transactionID]; !ok {
		return false, payment.ErrTransactionNotFound
	}
	g.refunds = append(g.refunds, RefundRecord{TransactionID: transactionID, Amount: amount})
	return true, nil
}

// ChargeCount 已成功扣款次数
func (g *Gateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charges)
}

// Refunds 已退款记录
func (g *Gateway) Refunds() []RefundRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RefundRecord, len(g.refunds))
	copy(out, g.refunds)
	return out
}
