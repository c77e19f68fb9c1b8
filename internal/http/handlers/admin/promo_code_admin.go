package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createPromoCodePayload struct {
	Code             string        `json:"code" binding:"required"`
	Type             string        `json:"type" binding:"required"`
	DiscountPercent  int           `json:"discount_percent"`
	FixedAmount      models.Money  `json:"fixed_amount"`
	ExpiryDate       *time.Time    `json:"expiry_date"`
	MinPurchase      *models.Money `json:"min_purchase"`
	GlobalUsageLimit *int          `json:"global_usage_limit"`
	PerUserLimit     *int          `json:"per_user_limit"`
	IsActive         *bool         `json:"is_active"`
}

type updatePromoCodePayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreatePromoCode 创建优惠码
func (h *Handler) CreatePromoCode(c *gin.Context) {
	var req createPromoCodePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	promo, err := h.PromoService.Create(c.Request.Context(), service.CreatePromoCodeInput{
		Code:             req.Code,
		Type:             req.Type,
		DiscountPercent:  req.DiscountPercent,
		FixedAmount:      req.FixedAmount,
		ExpiryDate:       req.ExpiryDate,
		MinPurchase:      req.MinPurchase,
		GlobalUsageLimit: req.GlobalUsageLimit,
		PerUserLimit:     req.PerUserLimit,
		IsActive:         active,
	})
	if err != nil {
		respondPromoCodeError(c, err)
		return
	}
	requestLog(c).Infow("admin_promo_code_created", "promo_code_id", promo.ID, "code", promo.Code, "type", promo.Type)
	response.Success(c, promo)
}

// UpdatePromoCode 启用或停用优惠码
func (h *Handler) UpdatePromoCode(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req updatePromoCodePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	promo, err := h.PromoService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondPromoCodeError(c, err)
		return
	}
	response.Success(c, promo)
}

// GetPromoCode 优惠码详情
func (h *Handler) GetPromoCode(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	promo, err := h.PromoService.Get(c.Request.Context(), id)
	if err != nil {
		respondPromoCodeError(c, err)
		return
	}
	response.Success(c, promo)
}

// ListPromoCodes 优惠码列表
func (h *Handler) ListPromoCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.PromoCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		Type:     strings.TrimSpace(c.Query("type")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	promos, total, err := h.PromoService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_code_save_failed", err)
		return
	}
	response.SuccessWithPage(c, promos, handlershared.BuildPagination(page, pageSize, total))
}
