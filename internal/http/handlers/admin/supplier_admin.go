package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createSupplierPayload struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
}

// CreateSupplier 新建供应商
func (h *Handler) CreateSupplier(c *gin.Context) {
	var req createSupplierPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	supplier, err := h.PurchaseOrderService.CreateSupplier(service.CreateSupplierInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
	})
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.PurchaseOrderErrorRules, response.CodeInternal, "error.supplier_save_failed")
		return
	}
	response.Success(c, supplier)
}

// ListSuppliers 供应商列表
func (h *Handler) ListSuppliers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))
	suppliers, total, err := h.PurchaseOrderService.ListSuppliers(repository.SupplierListFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		OnlyActive: onlyActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.purchase_order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, suppliers, handlershared.BuildPagination(page, pageSize, total))
}
