package public

import (
	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondCheckoutError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.CheckoutErrorRules, response.CodeInternal, "error.checkout_failed")
}

func respondCartError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.ProductErrorRules, response.CodeInternal, "error.cart_update_failed")
}

func respondOrderError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.OrderErrorRules, response.CodeInternal, "error.order_fetch_failed")
}
