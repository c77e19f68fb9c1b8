package models

import "time"

// PromoCodeUsage 优惠码核销记录，每次成功结算一条
type PromoCodeUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                          // 主键
	PromoCodeID    uint      `gorm:"index:idx_promo_usage_code_user;not null" json:"promo_code_id"` // 优惠码ID
	UserID         uint      `gorm:"index:idx_promo_usage_code_user;not null" json:"user_id"`       // 用户ID
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                                // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	UsedAt         time.Time `gorm:"index;not null" json:"used_at"`                                 // 核销时间
}

// TableName 指定表名
func (PromoCodeUsage) TableName() string {
	return "promo_code_usages"
}
