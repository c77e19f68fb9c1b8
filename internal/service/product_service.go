package service

import (
	"context"
	"strings"
	"time"

	"github.com/bookstore-next/internal/cache"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	repo        repository.ProductRepository
	snapshotTTL time.Duration
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, snapshotTTL time.Duration) *ProductService {
	return &ProductService{repo: repo, snapshotTTL: snapshotTTL}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	ISBN         string
	Title        string
	Author       string
	Price        models.Money
	InitialStock int
	IsActive     bool
}

// ListPublic 前台商品列表
func (s *ProductService) ListPublic(page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.ListActive(page, pageSize)
}

// GetPublic 前台商品详情
func (s *ProductService) GetPublic(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetStockSnapshot 读取展示用库存快照，缓存未命中回源数据库
func (s *ProductService) GetStockSnapshot(ctx context.Context, id uint) (*cache.ProductSnapshot, error) {
	snapshot, hit, err := cache.GetProductSnapshot(ctx, id)
	if err != nil {
		logger.Warnw("product_snapshot_read_failed", "product_id", id, "error", err)
	}
	if hit && snapshot != nil {
		return snapshot, nil
	}
	product, err := s.GetPublic(id)
	if err != nil {
		return nil, err
	}
	snapshot = cache.BuildProductSnapshot(product)
	if err := cache.SetProductSnapshot(ctx, snapshot, s.snapshotTTL); err != nil {
		logger.Warnw("product_snapshot_write_failed", "product_id", id, "error", err)
	}
	return snapshot, nil
}

// Create 管理端创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	isbn := strings.TrimSpace(input.ISBN)
	if title == "" || isbn == "" {
		return nil, ErrProductNotAvailable
	}
	if input.InitialStock < 0 {
		return nil, ErrInvalidQuantity
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidUnitPrice
	}
	now := time.Now()
	product := &models.Product{
		ISBN:         isbn,
		Title:        title,
		Author:       strings.TrimSpace(input.Author),
		Price:        input.Price,
		StockQty:     input.InitialStock,
		InitialStock: input.InitialStock,
		IsActive:     input.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}
