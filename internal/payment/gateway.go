package payment

import (
	"context"
	"errors"

	"github.com/bookstore-next/internal/models"
)

var (
	// ErrDeclined 网关拒付
	ErrDeclined = errors.New("payment declined")
	// ErrTransactionNotFound 网关不存在该交易
	ErrTransactionNotFound = errors.New("payment transaction not found")
	// ErrRequestFailed 网关调用失败
	ErrRequestFailed = errors.New("payment request failed")
	// ErrResponseInvalid 网关响应无法解析
	ErrResponseInvalid = errors.New("payment response invalid")
)

// ChargeRequest 扣款请求
type ChargeRequest struct {
	AttemptID   string       // 结算尝试ID，作为幂等键
	UserID      uint         // 用户ID
	Amount      models.Money // 扣款金额
	Currency    string       // 币种
	Token       string       // 支付凭证
	Description string       // 描述
}

// ChargeResult 扣款结果
type ChargeResult struct {
	TransactionID string
	Status        string
	Raw           map[string]interface{}
}

// Gateway 支付网关
// Charge 拒付时返回包装 ErrDeclined 的错误；调用方负责设置超时
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, amount models.Money, transactionID string) (bool, error)
}
