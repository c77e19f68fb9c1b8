package repository

import (
	"errors"

	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromoCodeRepository 优惠码数据访问接口
type PromoCodeRepository interface {
	GetByID(id uint) (*models.PromoCode, error)
	GetByIDForUpdate(id uint) (*models.PromoCode, error)
	GetByCode(code string) (*models.PromoCode, error)
	Create(promo *models.PromoCode) error
	SetActive(id uint, active bool) (int64, error)
	List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error)
	DecrementRemainingUses(id uint) (int64, error)
	IncrementRemainingUses(id uint) error
	WithTx(tx *gorm.DB) *GormPromoCodeRepository
}

// GormPromoCodeRepository GORM 实现
type GormPromoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository 创建优惠码仓库
func NewPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromoCodeRepository) WithTx(tx *gorm.DB) *GormPromoCodeRepository {
	if tx == nil {
		return r
	}
	return &GormPromoCodeRepository{db: tx}
}

// GetByID 根据ID获取优惠码
func (r *GormPromoCodeRepository) GetByID(id uint) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// GetByIDForUpdate 在事务内加行锁读取优惠码，串行化同一优惠码的核销
func (r *GormPromoCodeRepository) GetByIDForUpdate(id uint) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&promo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// GetByCode 根据优惠码获取
func (r *GormPromoCodeRepository) GetByCode(code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// Create 创建优惠码
func (r *GormPromoCodeRepository) Create(promo *models.PromoCode) error {
	return r.db.Create(promo).Error
}

// SetActive 启用或停用优惠码
func (r *GormPromoCodeRepository) SetActive(id uint, active bool) (int64, error) {
	result := r.db.Model(&models.PromoCode{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 优惠码列表
func (r *GormPromoCodeRepository) List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	query := r.db.Model(&models.PromoCode{})
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var promos []models.PromoCode
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&promos).Error; err != nil {
		return nil, 0, err
	}
	return promos, total, nil
}

// DecrementRemainingUses 条件扣减剩余次数
// remaining_uses 为空表示不限次数，直接返回 1；否则仅在大于 0 时扣减
func (r *GormPromoCodeRepository) DecrementRemainingUses(id uint) (int64, error) {
	result := r.db.Model(&models.PromoCode{}).
		Where("id = ? AND (remaining_uses IS NULL OR remaining_uses > 0)", id).
		Update("remaining_uses", gorm.Expr("CASE WHEN remaining_uses IS NULL THEN NULL ELSE remaining_uses - 1 END"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementRemainingUses 归还一次使用次数，不限次数的优惠码不变
func (r *GormPromoCodeRepository) IncrementRemainingUses(id uint) error {
	return r.db.Model(&models.PromoCode{}).
		Where("id = ? AND remaining_uses IS NOT NULL", id).
		Update("remaining_uses", gorm.Expr("remaining_uses + 1")).Error
}
