package public

import (
	"strconv"

	handlershared "github.com/bookstore-next/internal/http/handlers/shared"
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/models"

	"github.com/gin-gonic/gin"
)

// PublicProductView 前台商品响应
type PublicProductView struct {
	ID        uint         `json:"id"`
	ISBN      string       `json:"isbn"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	Price     models.Money `json:"price"`
	StockQty  int          `json:"stock_qty"`
	IsSoldOut bool         `json:"is_sold_out"`
}

func toPublicProductView(product *models.Product) PublicProductView {
	return PublicProductView{
		ID:        product.ID,
		ISBN:      product.ISBN,
		Title:     product.Title,
		Author:    product.Author,
		Price:     product.Price,
		StockQty:  product.StockQty,
		IsSoldOut: product.StockQty <= 0,
	}
}

// ListProducts 前台商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListPublic(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	items := make([]PublicProductView, 0, len(products))
	for i := range products {
		items = append(items, toPublicProductView(&products[i]))
	}
	response.SuccessWithPage(c, items, handlershared.BuildPagination(page, pageSize, total))
}

// GetProduct 前台商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetPublic(id)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.ProductErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, toPublicProductView(product))
}

// GetProductStock 商品库存快照（走缓存，写入后失效）
func (h *Handler) GetProductStock(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.ProductService.GetStockSnapshot(c.Request.Context(), id)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.ProductErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, snapshot)
}
