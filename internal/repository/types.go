package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PromoCodeListFilter 查询优惠码列表的过滤条件
type PromoCodeListFilter struct {
	Page     int
	PageSize int
	Code     string
	Type     string
	IsActive *bool
}

// SupplierListFilter 查询供应商列表的过滤条件
type SupplierListFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	OnlyActive bool
}

// PurchaseOrderListFilter 查询采购单列表的过滤条件
type PurchaseOrderListFilter struct {
	Page       int
	PageSize   int
	SupplierID uint
	Status     string
}
