package models

import "time"

// StockReservation 结算过程中的库存预占记录
// held 表示库存已扣减但订单未落库；consumed 表示已随订单提交；released 表示已归还库存
// PaymentRef 非空表示该结算尝试已扣款且尚未被退款流程认领
type StockReservation struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	AttemptID     string    `gorm:"type:varchar(64);index;not null" json:"attempt_id"`                           // 结算尝试ID
	ProductID     uint      `gorm:"index;not null" json:"product_id"`                                            // 商品ID
	Quantity      int       `gorm:"not null" json:"quantity"`                                                    // 预占数量
	Status        string    `gorm:"type:varchar(20);index:idx_reservation_status_expire;not null" json:"status"` // 状态
	ExpiresAt     time.Time `gorm:"index:idx_reservation_status_expire;not null" json:"expires_at"`              // 过期时间
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`                                             // 关联订单
	PaymentRef    string    `gorm:"type:varchar(128);index" json:"payment_ref,omitempty"`                        // 待认领的支付交易号
	ChargedAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"charged_amount"`                 // 扣款金额
	Currency      string    `gorm:"type:varchar(8)" json:"currency,omitempty"`                                   // 扣款币种
	CreatedAt     time.Time `json:"created_at"`                                                                  // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                                                  // 更新时间
}

// TableName 指定表名
func (StockReservation) TableName() string {
	return "stock_reservations"
}
