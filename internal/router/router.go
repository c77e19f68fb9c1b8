package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bookstore-next/internal/authz"
	"github.com/bookstore-next/internal/cache"
	"github.com/bookstore-next/internal/config"
	adminhandlers "github.com/bookstore-next/internal/http/handlers/admin"
	publichandlers "github.com/bookstore-next/internal/http/handlers/public"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bk"
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
	}
	checkoutLimiter := RateLimitMiddleware(cache.Client(), checkoutRule, KeyByUserID)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	if cfg.Metrics.Enabled && c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 商品目录（无需鉴权）
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)
		apiV1.GET("/products/:id/stock", publicHandler.GetProductStock)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.TokenService, cfg.UserJWT.SecretKey))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.UpsertCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/checkout/preview", publicHandler.PreviewCheckout)
			user.POST("/checkout", checkoutLimiter, publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetOrderByNo)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(c.TokenService, cfg.AdminJWT.SecretKey), AdminRBACMiddleware(c.AuthzService))
		{
			// 商品
			admin.POST("/products", adminHandler.CreateProduct)

			// 订单
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)

			// 优惠码
			admin.GET("/promo-codes", adminHandler.ListPromoCodes)
			admin.POST("/promo-codes", adminHandler.CreatePromoCode)
			admin.GET("/promo-codes/:id", adminHandler.GetPromoCode)
			admin.PATCH("/promo-codes/:id", adminHandler.UpdatePromoCode)

			// 供应商与采购收货
			admin.GET("/suppliers", adminHandler.ListSuppliers)
			admin.POST("/suppliers", adminHandler.CreateSupplier)
			admin.GET("/purchase-orders", adminHandler.ListPurchaseOrders)
			admin.POST("/purchase-orders", adminHandler.CreatePurchaseOrder)
			admin.GET("/purchase-orders/:id", adminHandler.GetPurchaseOrder)
			admin.POST("/purchase-orders/:id/receive", adminHandler.ReceivePurchaseOrder)
			admin.POST("/purchase-orders/:id/receive-partial", adminHandler.ReceivePurchaseOrderPartial)
			admin.POST("/purchase-orders/:id/cancel", adminHandler.CancelPurchaseOrder)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles/policies", adminHandler.GrantAuthzRolePolicy)
			admin.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
