package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/queue"
	"github.com/bookstore-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderLineInput 采购明细输入，UnitPrice 为空时取商品当前售价
type PurchaseOrderLineInput struct {
	ProductID uint
	Quantity  int
	UnitPrice *models.Money
}

// CreatePurchaseOrderInput 创建采购单输入
type CreatePurchaseOrderInput struct {
	SupplierID uint
	Lines      []PurchaseOrderLineInput
	Notes      string
}

// ReceiptLine 单条到货
type ReceiptLine struct {
	ItemID   uint
	Quantity int
}

// CreateSupplierInput 创建供应商输入
type CreateSupplierInput struct {
	Name         string
	ContactEmail string
	Phone        string
}

// PurchaseOrderService 采购收货服务
type PurchaseOrderService struct {
	db           *gorm.DB
	poRepo       repository.PurchaseOrderRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	outboxRepo   repository.OutboxRepository
	ledger       *StockLedger
	queueClient  *queue.Client
	metrics      *metrics.Metrics
}

// NewPurchaseOrderService 创建采购收货服务
func NewPurchaseOrderService(db *gorm.DB, poRepo repository.PurchaseOrderRepository, supplierRepo repository.SupplierRepository, productRepo repository.ProductRepository, outboxRepo repository.OutboxRepository, ledger *StockLedger, queueClient *queue.Client, m *metrics.Metrics) *PurchaseOrderService {
	return &PurchaseOrderService{
		db:           db,
		poRepo:       poRepo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		outboxRepo:   outboxRepo,
		ledger:       ledger,
		queueClient:  queueClient,
		metrics:      m,
	}
}

// Create 创建采购单，初始状态为 pending
func (s *PurchaseOrderService) Create(ctx context.Context, input CreatePurchaseOrderInput) (*models.PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return nil, ErrPurchaseOrderEmpty
	}
	supplier, err := s.supplierRepo.GetByID(input.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || !supplier.IsActive {
		return nil, ErrSupplierNotFound
	}

	productIDs := make([]uint, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, ErrInvalidUnitPrice
		}
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uint]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	now := time.Now()
	total := decimal.Zero
	items := make([]models.PurchaseOrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		product, ok := productMap[line.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		unitPrice := product.Price
		if line.UnitPrice != nil {
			unitPrice = models.NewMoneyFromDecimal(line.UnitPrice.Decimal)
		}
		lineTotal := unitPrice.MulQty(line.Quantity)
		total = total.Add(lineTotal.Decimal)
		items = append(items, models.PurchaseOrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	po := &models.PurchaseOrder{
		SupplierID:  supplier.ID,
		OrderDate:   now,
		Status:      constants.PurchaseOrderStatusPending,
		TotalAmount: models.NewMoneyFromDecimal(total),
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.poRepo.Transaction(func(tx *gorm.DB) error {
		return s.poRepo.WithTx(tx).Create(po, items)
	})
	if err != nil {
		return nil, err
	}
	po.Supplier = supplier
	logger.Infow("purchase_order_created",
		"purchase_order_id", po.ID,
		"supplier_id", po.SupplierID,
		"lines", len(items),
		"total", po.TotalAmount.String(),
	)
	return po, nil
}

// ReceiveFull 整单到货：每条明细补齐至采购数量
func (s *PurchaseOrderService) ReceiveFull(ctx context.Context, poID, receivedBy uint) (*models.PurchaseOrder, error) {
	return s.receive(ctx, poID, receivedBy, constants.ReceiptModeFull, func(po *models.PurchaseOrder) ([]ReceiptLine, error) {
		receipts := make([]ReceiptLine, 0, len(po.Items))
		for _, item := range po.Items {
			if outstanding := item.Outstanding(); outstanding > 0 {
				receipts = append(receipts, ReceiptLine{ItemID: item.ID, Quantity: outstanding})
			}
		}
		return receipts, nil
	})
}

// ReceivePartial 部分到货，数量为本次增量
func (s *PurchaseOrderService) ReceivePartial(ctx context.Context, poID uint, receipts []ReceiptLine, receivedBy uint) (*models.PurchaseOrder, error) {
	merged, err := mergeReceipts(receipts)
	if err != nil {
		return nil, err
	}
	return s.receive(ctx, poID, receivedBy, constants.ReceiptModePartial, func(po *models.PurchaseOrder) ([]ReceiptLine, error) {
		items := make(map[uint]models.PurchaseOrderItem, len(po.Items))
		for _, item := range po.Items {
			items[item.ID] = item
		}
		for _, receipt := range merged {
			item, ok := items[receipt.ItemID]
			if !ok {
				return nil, ErrPurchaseOrderItemNotFound
			}
			if receipt.Quantity > item.Outstanding() {
				return nil, &OverReceiptError{ItemID: item.ID, Outstanding: item.Outstanding(), Requested: receipt.Quantity}
			}
		}
		return merged, nil
	})
}

// receive 单事务内完成明细累加、库存回补、状态推进与事件写入
func (s *PurchaseOrderService) receive(ctx context.Context, poID, receivedBy uint, mode string, plan func(po *models.PurchaseOrder) ([]ReceiptLine, error)) (*models.PurchaseOrder, error) {
	var (
		result   *models.PurchaseOrder
		applied  []ReceivedLineSummary
		units    int
		restored []uint
	)
	err := s.poRepo.Transaction(func(tx *gorm.DB) error {
		poRepo := s.poRepo.WithTx(tx)
		po, err := poRepo.GetByID(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return ErrPurchaseOrderNotFound
		}
		if po.Status != constants.PurchaseOrderStatusPending {
			return ErrPurchaseOrderNotPending
		}
		receipts, err := plan(po)
		if err != nil {
			return err
		}

		itemMap := make(map[uint]models.PurchaseOrderItem, len(po.Items))
		for _, item := range po.Items {
			itemMap[item.ID] = item
		}
		ledger := s.ledger.WithTx(tx)
		for _, receipt := range receipts {
			item := itemMap[receipt.ItemID]
			rows, err := poRepo.IncrementReceived(po.ID, item.ID, receipt.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return &OverReceiptError{ItemID: item.ID, Outstanding: item.Outstanding(), Requested: receipt.Quantity}
			}
			if err := ledger.Restock(ctx, item.ProductID, receipt.Quantity); err != nil {
				return err
			}
			applied = append(applied, ReceivedLineSummary{ItemID: item.ID, ProductID: item.ProductID, Quantity: receipt.Quantity})
			restored = append(restored, item.ProductID)
			units += receipt.Quantity
		}

		items, err := poRepo.ListItems(po.ID)
		if err != nil {
			return err
		}
		po.Items = items
		now := time.Now()
		updates := map[string]interface{}{
			"received_by_user_id": receivedBy,
			"updated_at":          now,
		}
		status := constants.PurchaseOrderStatusPending
		if po.FullyReceived() {
			status = constants.PurchaseOrderStatusReceived
			updates["received_at"] = now
			po.ReceivedAt = &now
		}
		rows, err := poRepo.UpdateStatus(po.ID, constants.PurchaseOrderStatusPending, status, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPurchaseOrderNotPending
		}
		po.Status = status
		po.ReceivedByUserID = &receivedBy
		po.UpdatedAt = now
		result = po

		if len(applied) == 0 {
			return nil
		}
		return insertOutboxEvent(s.outboxRepo.WithTx(tx), constants.TopicPurchaseOrderReceived, strconv.FormatUint(uint64(po.ID), 10), PurchaseOrderReceivedEvent{
			PurchaseOrderID: po.ID,
			SupplierID:      po.SupplierID,
			Status:          status,
			Mode:            mode,
			ReceivedBy:      receivedBy,
			Lines:           applied,
			OccurredAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.ledger.InvalidateSnapshots(ctx, restored...)
	s.metrics.UnitsReceived(mode, units)
	logger.Infow("purchase_order_received",
		"purchase_order_id", result.ID,
		"mode", mode,
		"status", result.Status,
		"units", units,
		"received_by", receivedBy,
	)
	if units > 0 {
		if err := s.queueClient.EnqueuePurchaseOrderReceived(queue.PurchaseOrderReceivedPayload{
			PurchaseOrderID: result.ID,
			Status:          result.Status,
			ReceivedBy:      receivedBy,
			Units:           units,
		}); err != nil {
			logger.Warnw("purchase_order_enqueue_received_failed", "purchase_order_id", result.ID, "error", err)
		}
	}
	return result, nil
}

// Cancel 取消采购单，仅 pending 且尚未到货时允许
// 锁定采购单行后再检查明细，与收货事务串行
func (s *PurchaseOrderService) Cancel(ctx context.Context, poID uint) (*models.PurchaseOrder, error) {
	var result *models.PurchaseOrder
	now := time.Now()
	err := s.poRepo.Transaction(func(tx *gorm.DB) error {
		poRepo := s.poRepo.WithTx(tx)
		po, err := poRepo.GetByIDForUpdate(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return ErrPurchaseOrderNotFound
		}
		if po.Status != constants.PurchaseOrderStatusPending {
			return ErrPurchaseOrderNotPending
		}
		items, err := poRepo.ListItems(po.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.ReceivedQuantity > 0 {
				return ErrPurchaseOrderNotPending
			}
		}
		rows, err := poRepo.UpdateStatus(po.ID, constants.PurchaseOrderStatusPending, constants.PurchaseOrderStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPurchaseOrderNotPending
		}
		po.Items = items
		po.Status = constants.PurchaseOrderStatusCancelled
		po.CancelledAt = &now
		po.UpdatedAt = now
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("purchase_order_cancelled", "purchase_order_id", result.ID)
	return result, nil
}

// Get 采购单详情
func (s *PurchaseOrderService) Get(poID uint) (*models.PurchaseOrder, error) {
	po, err := s.poRepo.GetByID(poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrPurchaseOrderNotFound
	}
	return po, nil
}

// List 采购单列表
func (s *PurchaseOrderService) List(filter repository.PurchaseOrderListFilter) ([]models.PurchaseOrder, int64, error) {
	return s.poRepo.List(filter)
}

// CreateSupplier 创建供应商
func (s *PurchaseOrderService) CreateSupplier(input CreateSupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSupplierInvalid
	}
	now := time.Now()
	supplier := &models.Supplier{
		Name:         name,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		Phone:        strings.TrimSpace(input.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.supplierRepo.Create(supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// ListSuppliers 供应商列表
func (s *PurchaseOrderService) ListSuppliers(filter repository.SupplierListFilter) ([]models.Supplier, int64, error) {
	return s.supplierRepo.List(filter)
}

// mergeReceipts 合并同一明细的多条到货并按明细 ID 排序
func mergeReceipts(receipts []ReceiptLine) ([]ReceiptLine, error) {
	if len(receipts) == 0 {
		return nil, ErrInvalidQuantity
	}
	totals := make(map[uint]int, len(receipts))
	for _, receipt := range receipts {
		if receipt.ItemID == 0 {
			return nil, ErrPurchaseOrderItemNotFound
		}
		if receipt.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		totals[receipt.ItemID] += receipt.Quantity
	}
	merged := make([]ReceiptLine, 0, len(totals))
	for itemID, quantity := range totals {
		merged = append(merged, ReceiptLine{ItemID: itemID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ItemID < merged[j].ItemID })
	return merged, nil
}
