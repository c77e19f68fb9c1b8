package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 图书商品表（库存承载实体）
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	ISBN         string         `gorm:"type:varchar(32);index" json:"isbn"`                       // ISBN
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`                  // 书名
	Author       string         `gorm:"type:varchar(255)" json:"author"`                          // 作者
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`       // 当前售价
	StockQty     int            `gorm:"not null;default:0;check:stock_qty >= 0" json:"stock_qty"` // 在库数量（仅允许经库存台账修改）
	InitialStock int            `gorm:"not null;default:0" json:"initial_stock"`                  // 初始库存快照
	Version      uint64         `gorm:"not null;default:0" json:"version"`                        // 并发令牌，每次库存写入递增
	IsActive     bool           `gorm:"not null;index" json:"is_active"`                          // 是否上架
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                               // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
