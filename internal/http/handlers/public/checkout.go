package public

import (
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ShippingRequest 收货信息
type ShippingRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city"`
	Region  string `json:"region" binding:"required"`
	Zip     string `json:"zip"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	PromoCode    string          `json:"promo_code"`
	PaymentToken string          `json:"payment_token"`
	Shipping     ShippingRequest `json:"shipping" binding:"required"`
}

func (r CheckoutRequest) toInput(userID uint) service.CheckoutInput {
	return service.CheckoutInput{
		UserID:       userID,
		PromoCode:    r.PromoCode,
		PaymentToken: r.PaymentToken,
		Shipping: service.ShippingAddress{
			Name:    r.Shipping.Name,
			Phone:   r.Shipping.Phone,
			Address: r.Shipping.Address,
			City:    r.Shipping.City,
			Region:  r.Shipping.Region,
			Zip:     r.Shipping.Zip,
		},
	}
}

// PreviewCheckout 结算金额预览，不预占库存也不扣款
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	quote, err := h.CheckoutService.Preview(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, quote)
}

// Checkout 提交结算：预占库存、扣款并生成订单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.CheckoutService.Checkout(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, order)
}
