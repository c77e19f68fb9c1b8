package repository

import (
	"errors"

	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	ListActive(page, pageSize int) ([]models.Product, int64, error)
	Create(product *models.Product) error
	CompareAndSwapStock(id uint, observedVersion uint64, delta int) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 根据ID获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListActive 分页获取上架商品
func (r *GormProductRepository) ListActive(page, pageSize int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("is_active = ?", true)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []models.Product
	if err := applyPagination(query, page, pageSize).Order("id asc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// CompareAndSwapStock 以版本号为条件调整库存
// delta 为负表示扣减，结果库存不得为负；版本号不匹配时影响行数为 0
func (r *GormProductRepository) CompareAndSwapStock(id uint, observedVersion uint64, delta int) (int64, error) {
	if id == 0 || delta == 0 {
		return 0, errors.New("invalid stock swap params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND version = ? AND stock_qty + ? >= 0", id, observedVersion, delta).
		Updates(map[string]interface{}{
			"stock_qty": gorm.Expr("stock_qty + ?", delta),
			"version":   gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
