package admin

import "github.com/bookstore-next/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：所有路由均经过管理员令牌与 RBAC 校验。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
