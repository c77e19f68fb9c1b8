package models

import "time"

// PurchaseOrderItem 采购明细
type PurchaseOrderItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	PurchaseOrderID  uint      `gorm:"index;not null" json:"purchase_order_id"`                                         // 采购单ID
	ProductID        uint      `gorm:"index;not null" json:"product_id"`                                                // 商品ID
	Quantity         int       `gorm:"not null" json:"quantity"`                                                        // 采购数量
	UnitPrice        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`                         // 采购单价
	ReceivedQuantity int       `gorm:"not null;default:0;check:received_quantity <= quantity" json:"received_quantity"` // 累计到货数量
	CreatedAt        time.Time `json:"created_at"`                                                                      // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                                                      // 更新时间
}

// TableName 指定表名
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// Outstanding 待到货数量
func (i PurchaseOrderItem) Outstanding() int {
	if i.ReceivedQuantity >= i.Quantity {
		return 0
	}
	return i.Quantity - i.ReceivedQuantity
}
