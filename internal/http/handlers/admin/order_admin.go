package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/repository"

	"github.com/gin-gonic/gin"
)

type updateOrderStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if uid, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(uid)
		}
	}
	if from, ok := parseDateQuery(c.Query("created_from")); ok {
		filter.CreatedFrom = &from
	}
	if to, ok := parseDateQuery(c.Query("created_to")); ok {
		filter.CreatedTo = &to
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 推进订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req updateOrderStatusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_status_updated", "order_id", orderID, "status", order.Status)
	response.Success(c, order)
}

// CancelOrder 取消订单并回补库存、退款
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_canceled", "order_id", orderID, "order_no", order.OrderNo)
	response.Success(c, order)
}

func parseDateQuery(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
