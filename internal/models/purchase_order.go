package models

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseOrder 采购单
type PurchaseOrder struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	SupplierID       uint           `gorm:"index;not null" json:"supplier_id"`                         // 供应商ID
	OrderDate        time.Time      `gorm:"index;not null" json:"order_date"`                          // 采购日期
	Status           string         `gorm:"type:varchar(20);index;not null" json:"status"`             // 状态（pending/received/cancelled）
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 采购总额
	ReceivedAt       *time.Time     `json:"received_at,omitempty"`                                     // 全部到货时间
	ReceivedByUserID *uint          `json:"received_by_user_id,omitempty"`                             // 最后收货人
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`                                    // 取消时间
	Notes            string         `gorm:"type:text" json:"notes,omitempty"`                          // 备注
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Supplier *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`                     // 供应商
	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"` // 采购明细
}

// TableName 指定表名
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// FullyReceived 是否所有明细均已到齐
func (po *PurchaseOrder) FullyReceived() bool {
	if po == nil || len(po.Items) == 0 {
		return false
	}
	for _, item := range po.Items {
		if item.ReceivedQuantity != item.Quantity {
			return false
		}
	}
	return true
}
