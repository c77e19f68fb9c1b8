package public

import "github.com/bookstore-next/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：购物车、结算与订单查询均需用户令牌。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
