package models

import (
	"time"

	"gorm.io/gorm"
)

// PromoCode 优惠码
type PromoCode struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code             string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`         // 优惠码（大写）
	Type             string         `gorm:"type:varchar(20);not null" json:"type"`                     // 类型（percentage/fixed/free_shipping）
	DiscountPercent  int            `gorm:"not null;default:0" json:"discount_percent"`                // 折扣百分比（percentage 使用）
	FixedAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fixed_amount"` // 固定减免（fixed 使用）
	IsActive         bool           `gorm:"not null" json:"is_active"`                                 // 是否启用
	ExpiryDate       *time.Time     `gorm:"index" json:"expiry_date"`                                  // 过期时间（空表示永不过期）
	MinPurchase      *Money         `gorm:"type:decimal(20,2)" json:"min_purchase"`                    // 最低消费（空表示无门槛）
	GlobalUsageLimit *int           `json:"global_usage_limit"`                                        // 总使用上限（空表示不限）
	PerUserLimit     *int           `json:"per_user_limit"`                                            // 每人使用上限（空表示不限）
	RemainingUses    *int           `json:"remaining_uses"`                                            // 剩余次数（空表示不限，不会小于 0）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}
