package repository

import (
	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
)

// PromoCodeUsageRepository 优惠码核销记录数据访问接口
type PromoCodeUsageRepository interface {
	Create(usage *models.PromoCodeUsage) error
	CountByUser(promoCodeID, userID uint) (int64, error)
	CountByPromoCode(promoCodeID uint) (int64, error)
	ListByOrder(orderID uint) ([]models.PromoCodeUsage, error)
	DeleteByOrder(orderID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPromoCodeUsageRepository
}

// GormPromoCodeUsageRepository GORM 实现
type GormPromoCodeUsageRepository struct {
	db *gorm.DB
}

// NewPromoCodeUsageRepository 创建核销记录仓库
func NewPromoCodeUsageRepository(db *gorm.DB) *GormPromoCodeUsageRepository {
	return &GormPromoCodeUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromoCodeUsageRepository) WithTx(tx *gorm.DB) *GormPromoCodeUsageRepository {
	if tx == nil {
		return r
	}
	return &GormPromoCodeUsageRepository{db: tx}
}

// Create 创建核销记录
func (r *GormPromoCodeUsageRepository) Create(usage *models.PromoCodeUsage) error {
	return r.db.Create(usage).Error
}

// CountByUser 统计用户使用次数
func (r *GormPromoCodeUsageRepository) CountByUser(promoCodeID, userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND user_id = ?", promoCodeID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByPromoCode 统计优惠码总使用次数
func (r *GormPromoCodeUsageRepository) CountByPromoCode(promoCodeID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PromoCodeUsage{}).Where("promo_code_id = ?", promoCodeID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByOrder 获取订单的核销记录
func (r *GormPromoCodeUsageRepository) ListByOrder(orderID uint) ([]models.PromoCodeUsage, error) {
	var usages []models.PromoCodeUsage
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// DeleteByOrder 删除订单的核销记录
func (r *GormPromoCodeUsageRepository) DeleteByOrder(orderID uint) (int64, error) {
	result := r.db.Where("order_id = ?", orderID).Delete(&models.PromoCodeUsage{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
