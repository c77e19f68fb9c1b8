package models

import (
	"time"

	"gorm.io/gorm"
)

// Supplier 供应商
type Supplier struct {
	ID           uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name         string         `gorm:"type:varchar(255);not null" json:"name"` // 名称
	ContactEmail string         `gorm:"type:varchar(255)" json:"contact_email"` // 联系邮箱
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`          // 电话
	IsActive     bool           `gorm:"not null" json:"is_active"`              // 是否启用
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Supplier) TableName() string {
	return "suppliers"
}
