package i18n

var messages = map[string]map[string]string{
	LocaleEN: {
		"common.success":                      "success",
		"error.bad_request":                   "Invalid request parameters",
		"error.unauthorized":                  "Unauthorized",
		"error.forbidden":                     "Permission denied",
		"error.jwt_secret_missing":            "Authentication is not configured",
		"error.auth_header_missing":           "Missing Authorization header",
		"error.auth_header_invalid":           "Malformed Authorization header",
		"error.token_invalid":                 "Invalid or expired token",
		"error.user_id_invalid":               "Invalid user id",
		"error.user_id_type_invalid":          "User id type is invalid",
		"error.admin_id_invalid":              "Invalid admin id",
		"error.admin_id_type_invalid":         "Admin id type is invalid",
		"error.rate_limited":                  "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":        "Rate limiter unavailable",
		"error.quantity_invalid":              "Quantity is invalid",
		"error.product_not_found":             "Product not found",
		"error.product_not_available":         "Product is not available",
		"error.product_fetch_failed":          "Failed to load products",
		"error.product_save_failed":           "Failed to save product",
		"error.cart_fetch_failed":             "Failed to load cart",
		"error.cart_update_failed":            "Failed to update cart",
		"error.cart_empty":                    "Your cart is empty",
		"error.insufficient_stock":            "Not enough stock for one of the items",
		"error.stock_conflict":                "Stock is changing quickly, please retry",
		"error.promo_invalid":                 "Promo code cannot be applied",
		"error.shipping_unavailable":          "Shipping is not available for this address",
		"error.payment_declined":              "Payment was declined",
		"error.payment_timeout":               "Payment timed out",
		"error.checkout_canceled":             "Checkout was canceled",
		"error.reservation_expired":           "Your reservation expired, please retry",
		"error.checkout_failed":               "Checkout failed",
		"error.order_not_found":               "Order not found",
		"error.order_status_invalid":          "Order status transition is not allowed",
		"error.order_fetch_failed":            "Failed to load orders",
		"error.order_update_failed":           "Failed to update order",
		"error.promo_code_not_found":          "Promo code not found",
		"error.promo_code_exists":             "Promo code already exists",
		"error.promo_code_invalid":            "Promo code definition is invalid",
		"error.promo_code_save_failed":        "Failed to save promo code",
		"error.supplier_not_found":            "Supplier not found",
		"error.supplier_invalid":              "Supplier is invalid",
		"error.supplier_save_failed":          "Failed to save supplier",
		"error.purchase_order_not_found":      "Purchase order not found",
		"error.purchase_order_empty":          "Purchase order has no lines",
		"error.purchase_order_not_pending":    "Purchase order is not pending",
		"error.purchase_order_item_not_found": "Purchase order item not found",
		"error.unit_price_invalid":            "Unit price is invalid",
		"error.over_receipt":                  "Received quantity exceeds the outstanding quantity",
		"error.purchase_order_save_failed":    "Failed to save purchase order",
		"error.purchase_order_fetch_failed":   "Failed to load purchase orders",
		"error.authz_failed":                  "Permission update failed",
	},
	LocaleZH: {
		"common.success":                      "成功",
		"error.bad_request":                   "请求参数错误",
		"error.unauthorized":                  "未登录或登录已失效",
		"error.forbidden":                     "没有权限",
		"error.jwt_secret_missing":            "鉴权未配置",
		"error.auth_header_missing":           "缺少 Authorization 头",
		"error.auth_header_invalid":           "Authorization 头格式错误",
		"error.token_invalid":                 "令牌无效或已过期",
		"error.user_id_invalid":               "用户ID无效",
		"error.user_id_type_invalid":          "用户ID类型错误",
		"error.admin_id_invalid":              "管理员ID无效",
		"error.admin_id_type_invalid":         "管理员ID类型错误",
		"error.rate_limited":                  "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":        "限流服务不可用",
		"error.quantity_invalid":              "数量无效",
		"error.product_not_found":             "商品不存在",
		"error.product_not_available":         "商品已下架",
		"error.product_fetch_failed":          "商品加载失败",
		"error.product_save_failed":           "商品保存失败",
		"error.cart_fetch_failed":             "购物车加载失败",
		"error.cart_update_failed":            "购物车更新失败",
		"error.cart_empty":                    "购物车为空",
		"error.insufficient_stock":            "部分商品库存不足",
		"error.stock_conflict":                "库存变动频繁，请重试",
		"error.promo_invalid":                 "优惠码不可用",
		"error.shipping_unavailable":          "该地址暂不支持配送",
		"error.payment_declined":              "支付被拒绝",
		"error.payment_timeout":               "支付超时",
		"error.checkout_canceled":             "结算已取消",
		"error.reservation_expired":           "库存预占已过期，请重试",
		"error.checkout_failed":               "结算失败",
		"error.order_not_found":               "订单不存在",
		"error.order_status_invalid":          "订单状态不允许该操作",
		"error.order_fetch_failed":            "订单加载失败",
		"error.order_update_failed":           "订单更新失败",
		"error.promo_code_not_found":          "优惠码不存在",
		"error.promo_code_exists":             "优惠码已存在",
		"error.promo_code_invalid":            "优惠码配置无效",
		"error.promo_code_save_failed":        "优惠码保存失败",
		"error.supplier_not_found":            "供应商不存在",
		"error.supplier_invalid":              "供应商信息无效",
		"error.supplier_save_failed":          "供应商保存失败",
		"error.purchase_order_not_found":      "采购单不存在",
		"error.purchase_order_empty":          "采购单没有明细",
		"error.purchase_order_not_pending":    "采购单不是待收货状态",
		"error.purchase_order_item_not_found": "采购明细不存在",
		"error.unit_price_invalid":            "单价无效",
		"error.over_receipt":                  "到货数量超过未收数量",
		"error.purchase_order_save_failed":    "采购单保存失败",
		"error.purchase_order_fetch_failed":   "采购单加载失败",
		"error.authz_failed":                  "权限操作失败",
	},
}
