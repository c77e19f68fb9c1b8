package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type purchaseOrderLinePayload struct {
	ProductID uint          `json:"product_id" binding:"required"`
	Quantity  int           `json:"quantity" binding:"required"`
	UnitPrice *models.Money `json:"unit_price"`
}

type createPurchaseOrderPayload struct {
	SupplierID uint                       `json:"supplier_id" binding:"required"`
	Lines      []purchaseOrderLinePayload `json:"lines"`
	Notes      string                     `json:"notes"`
}

type receiptLinePayload struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

type receivePartialPayload struct {
	Lines []receiptLinePayload `json:"lines"`
}

// CreatePurchaseOrder 创建采购单
func (h *Handler) CreatePurchaseOrder(c *gin.Context) {
	var req createPurchaseOrderPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	lines := make([]service.PurchaseOrderLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.PurchaseOrderLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	po, err := h.PurchaseOrderService.Create(c.Request.Context(), service.CreatePurchaseOrderInput{
		SupplierID: req.SupplierID,
		Lines:      lines,
		Notes:      req.Notes,
	})
	if err != nil {
		respondPurchaseOrderError(c, err)
		return
	}
	requestLog(c).Infow("admin_purchase_order_created", "purchase_order_id", po.ID, "supplier_id", po.SupplierID, "lines", len(lines))
	response.Success(c, po)
}

// ListPurchaseOrders 采购单列表
func (h *Handler) ListPurchaseOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.PurchaseOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("supplier_id")); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.SupplierID = uint(id)
		}
	}
	orders, total, err := h.PurchaseOrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.purchase_order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetPurchaseOrder 采购单详情
func (h *Handler) GetPurchaseOrder(c *gin.Context) {
	poID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	po, err := h.PurchaseOrderService.Get(poID)
	if err != nil {
		respondPurchaseOrderError(c, err)
		return
	}
	response.Success(c, po)
}

// ReceivePurchaseOrder 整单收货
func (h *Handler) ReceivePurchaseOrder(c *gin.Context) {
	poID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	po, err := h.PurchaseOrderService.ReceiveFull(c.Request.Context(), poID, adminID)
	if err != nil {
		respondPurchaseOrderError(c, err)
		return
	}
	response.Success(c, po)
}

// ReceivePurchaseOrderPartial 部分收货
func (h *Handler) ReceivePurchaseOrderPartial(c *gin.Context) {
	poID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req receivePartialPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	receipts := make([]service.ReceiptLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		receipts = append(receipts, service.ReceiptLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	po, err := h.PurchaseOrderService.ReceivePartial(c.Request.Context(), poID, receipts, adminID)
	if err != nil {
		respondPurchaseOrderError(c, err)
		return
	}
	response.Success(c, po)
}

// CancelPurchaseOrder 取消待收货采购单
func (h *Handler) CancelPurchaseOrder(c *gin.Context) {
	poID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	po, err := h.PurchaseOrderService.Cancel(c.Request.Context(), poID)
	if err != nil {
		respondPurchaseOrderError(c, err)
		return
	}
	requestLog(c).Infow("admin_purchase_order_canceled", "purchase_order_id", po.ID)
	response.Success(c, po)
}
