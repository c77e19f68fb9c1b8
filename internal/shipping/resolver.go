package shipping

import (
	"context"
	"errors"

	"github.com/bookstore-next/internal/models"
)

var (
	// ErrRegionUnsupported 区域不支持配送
	ErrRegionUnsupported = errors.New("shipping region unsupported")
	// ErrUnavailable 运费服务不可用
	ErrUnavailable = errors.New("shipping rate unavailable")
)

// Resolver 运费计算
// subtotal 为优惠前商品小计
type Resolver interface {
	Rate(ctx context.Context, region string, subtotal models.Money) (models.Money, error)
}
