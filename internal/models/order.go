package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	AttemptID       string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`               // 结算尝试ID
	UserID          uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	OrderDate       time.Time      `gorm:"index;not null" json:"order_date"`                             // 下单时间
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"`                // 订单状态
	Currency        string         `gorm:"type:varchar(8);not null" json:"currency"`                     // 币种
	Subtotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	ShippingCost    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`   // 运费
	DiscountAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	PromoCode       string         `gorm:"type:varchar(64)" json:"promo_code,omitempty"`                 // 优惠码
	DiscountPercent *int           `json:"discount_percent,omitempty"`                                   // 折扣百分比
	FreeShipping    bool           `gorm:"not null;default:false" json:"free_shipping"`                  // 是否包邮
	ShippingRegion  string         `gorm:"type:varchar(64)" json:"shipping_region"`                      // 配送区域
	ShippingName    string         `gorm:"type:varchar(128)" json:"shipping_name"`                       // 收件人
	ShippingPhone   string         `gorm:"type:varchar(32)" json:"shipping_phone"`                       // 联系电话
	ShippingAddress string         `gorm:"type:varchar(512)" json:"shipping_address"`                    // 收件地址
	ShippingCity    string         `gorm:"type:varchar(128)" json:"shipping_city"`                       // 城市
	ShippingZip     string         `gorm:"type:varchar(32)" json:"shipping_zip"`                         // 邮编
	PaymentRef      string         `gorm:"type:varchar(128);index" json:"payment_ref,omitempty"`         // 支付流水号
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at,omitempty"`                           // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
