package admin

import (
	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createProductPayload struct {
	ISBN         string       `json:"isbn" binding:"required"`
	Title        string       `json:"title" binding:"required"`
	Author       string       `json:"author"`
	Price        models.Money `json:"price"`
	InitialStock int          `json:"initial_stock"`
	IsActive     *bool        `json:"is_active"`
}

// CreateProduct 创建图书商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req createProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		ISBN:         req.ISBN,
		Title:        req.Title,
		Author:       req.Author,
		Price:        req.Price,
		InitialStock: req.InitialStock,
		IsActive:     active,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "isbn", product.ISBN, "initial_stock", product.InitialStock)
	response.Success(c, product)
}
