package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bookstore-next/internal/models"
)

const defaultSnapshotTTL = 30 * time.Second

// ProductSnapshot 商品库存快照，仅用于展示读取
// 结算与库存写入始终读取数据库
type ProductSnapshot struct {
	ProductID uint         `json:"product_id"`
	Title     string       `json:"title"`
	Price     models.Money `json:"price"`
	StockQty  int          `json:"stock_qty"`
	Version   uint64       `json:"version"`
	IsActive  bool         `json:"is_active"`
	CachedAt  int64        `json:"cached_at"`
}

func productSnapshotKey(productID uint) string {
	return fmt.Sprintf("product:snapshot:%d", productID)
}

// BuildProductSnapshot 从商品模型构建快照
func BuildProductSnapshot(product *models.Product) *ProductSnapshot {
	if product == nil {
		return nil
	}
	return &ProductSnapshot{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		StockQty:  product.StockQty,
		Version:   product.Version,
		IsActive:  product.IsActive,
		CachedAt:  time.Now().Unix(),
	}
}

// GetProductSnapshot 读取商品快照
func GetProductSnapshot(ctx context.Context, productID uint) (*ProductSnapshot, bool, error) {
	if productID == 0 {
		return nil, false, nil
	}
	var snapshot ProductSnapshot
	hit, err := GetJSON(ctx, productSnapshotKey(productID), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetProductSnapshot 写入商品快照
func SetProductSnapshot(ctx context.Context, snapshot *ProductSnapshot, ttl time.Duration) error {
	if snapshot == nil || snapshot.ProductID == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return SetJSON(ctx, productSnapshotKey(snapshot.ProductID), snapshot, ttl)
}

// InvalidateProductSnapshots 库存变更后删除快照
func InvalidateProductSnapshots(ctx context.Context, productIDs ...uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id == 0 {
			continue
		}
		keys = append(keys, productSnapshotKey(id))
	}
	return Del(ctx, keys...)
}
