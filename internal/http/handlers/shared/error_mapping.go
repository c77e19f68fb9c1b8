package shared

import (
	"errors"

	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 业务错误到接口错误响应的映射
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondMappedError 按规则顺序匹配错误，未命中时使用兜底并记录原始错误
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并规则组
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// ProductErrorRules 商品相关错误
var ProductErrorRules = []MappedError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrInvalidUnitPrice, Code: response.CodeBadRequest, Key: "error.unit_price_invalid"},
}

// CheckoutErrorRules 结算错误，ErrPaymentTimeout 须排在 ErrPaymentDeclined 之前
var CheckoutErrorRules = []MappedError{
	{Target: service.ErrEmptyCart, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict, Key: "error.insufficient_stock"},
	{Target: service.ErrStockConflict, Code: response.CodeConflict, Key: "error.stock_conflict"},
	{Target: service.ErrInvalidPromo, Code: response.CodeBadRequest, Key: "error.promo_invalid"},
	{Target: service.ErrShippingUnavailable, Code: response.CodeBadRequest, Key: "error.shipping_unavailable"},
	{Target: service.ErrPaymentTimeout, Code: response.CodeGatewayTimeout, Key: "error.payment_timeout"},
	{Target: service.ErrPaymentDeclined, Code: response.CodePaymentRequired, Key: "error.payment_declined"},
	{Target: service.ErrCheckoutCanceled, Code: response.CodeBadRequest, Key: "error.checkout_canceled"},
	{Target: service.ErrReservationExpired, Code: response.CodeGone, Key: "error.reservation_expired"},
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest, Key: "error.product_not_found"},
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
}

// OrderErrorRules 订单错误
var OrderErrorRules = []MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
}

// PromoCodeErrorRules 优惠码管理错误
var PromoCodeErrorRules = []MappedError{
	{Target: service.ErrPromoCodeNotFound, Code: response.CodeNotFound, Key: "error.promo_code_not_found"},
	{Target: service.ErrPromoCodeExists, Code: response.CodeConflict, Key: "error.promo_code_exists"},
	{Target: service.ErrPromoCodeInvalid, Code: response.CodeBadRequest, Key: "error.promo_code_invalid"},
}

// PurchaseOrderErrorRules 采购收货错误
var PurchaseOrderErrorRules = []MappedError{
	{Target: service.ErrSupplierNotFound, Code: response.CodeBadRequest, Key: "error.supplier_not_found"},
	{Target: service.ErrSupplierInvalid, Code: response.CodeBadRequest, Key: "error.supplier_invalid"},
	{Target: service.ErrPurchaseOrderNotFound, Code: response.CodeNotFound, Key: "error.purchase_order_not_found"},
	{Target: service.ErrPurchaseOrderEmpty, Code: response.CodeBadRequest, Key: "error.purchase_order_empty"},
	{Target: service.ErrPurchaseOrderNotPending, Code: response.CodeConflict, Key: "error.purchase_order_not_pending"},
	{Target: service.ErrPurchaseOrderItemNotFound, Code: response.CodeBadRequest, Key: "error.purchase_order_item_not_found"},
	{Target: service.ErrOverReceipt, Code: response.CodeConflict, Key: "error.over_receipt"},
	{Target: service.ErrInvalidUnitPrice, Code: response.CodeBadRequest, Key: "error.unit_price_invalid"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest, Key: "error.product_not_found"},
}
