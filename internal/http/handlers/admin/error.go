package admin

import (
	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondOrderError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.OrderErrorRules, response.CodeInternal, "error.order_update_failed")
}

func respondPromoCodeError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.PromoCodeErrorRules, response.CodeInternal, "error.promo_code_save_failed")
}

func respondPurchaseOrderError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.PurchaseOrderErrorRules, response.CodeInternal, "error.purchase_order_save_failed")
}

func respondProductError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.ProductErrorRules, response.CodeInternal, "error.product_save_failed")
}
