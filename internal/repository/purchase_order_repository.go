package repository

import (
	"errors"

	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseOrderRepository 采购单数据访问接口
type PurchaseOrderRepository interface {
	Create(po *models.PurchaseOrder, items []models.PurchaseOrderItem) error
	GetByID(id uint) (*models.PurchaseOrder, error)
	GetByIDForUpdate(id uint) (*models.PurchaseOrder, error)
	List(filter PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error)
	ListItems(poID uint) ([]models.PurchaseOrderItem, error)
	IncrementReceived(poID, itemID uint, delta int) (int64, error)
	UpdateStatus(id uint, fromStatus, status string, updates map[string]interface{}) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPurchaseOrderRepository
}

// GormPurchaseOrderRepository GORM 实现
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository 创建采购单仓库
func NewPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPurchaseOrderRepository) WithTx(tx *gorm.DB) *GormPurchaseOrderRepository {
	if tx == nil {
		return r
	}
	return &GormPurchaseOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPurchaseOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建采购单与明细
func (r *GormPurchaseOrderRepository) Create(po *models.PurchaseOrder, items []models.PurchaseOrderItem) error {
	po.Items = nil
	if err := r.db.Create(po).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].PurchaseOrderID = po.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	po.Items = items
	return nil
}

// GetByID 获取采购单（含明细与供应商）
func (r *GormPurchaseOrderRepository) GetByID(id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Preload("Supplier").First(&po, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &po, nil
}

// GetByIDForUpdate 在事务内加行锁读取采购单（不含关联）
func (r *GormPurchaseOrderRepository) GetByIDForUpdate(id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &po, nil
}

// List 采购单列表
func (r *GormPurchaseOrderRepository) List(filter PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error) {
	query := r.db.Model(&models.PurchaseOrder{})
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.PurchaseOrder
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Preload("Supplier").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListItems 获取采购明细
func (r *GormPurchaseOrderRepository) ListItems(poID uint) ([]models.PurchaseOrderItem, error) {
	var items []models.PurchaseOrderItem
	if err := r.db.Where("purchase_order_id = ?", poID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementReceived 条件累加到货数量，超出采购数量时影响行数为 0
func (r *GormPurchaseOrderRepository) IncrementReceived(poID, itemID uint, delta int) (int64, error) {
	if itemID == 0 || delta <= 0 {
		return 0, errors.New("invalid receive params")
	}
	result := r.db.Model(&models.PurchaseOrderItem{}).
		Where("id = ? AND purchase_order_id = ? AND received_quantity + ? <= quantity", itemID, poID, delta).
		Update("received_quantity", gorm.Expr("received_quantity + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateStatus 条件更新采购单状态
func (r *GormPurchaseOrderRepository) UpdateStatus(id uint, fromStatus, status string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	query := r.db.Model(&models.PurchaseOrder{}).Where("id = ?", id)
	if fromStatus != "" {
		query = query.Where("status = ?", fromStatus)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
