package cache

import (
	"context"
	"testing"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	ctx := context.Background()
	snapshot := BuildProductSnapshot(&models.Product{ID: 3, Title: "Beloved", StockQty: 4, Version: 2, IsActive: true})
	if err := SetProductSnapshot(ctx, snapshot, 0); err != nil {
		t.Fatalf("set snapshot on disabled cache should be noop: %v", err)
	}
	got, hit, err := GetProductSnapshot(ctx, 3)
	if err != nil || hit || got != nil {
		t.Fatalf("disabled cache should miss, got=%v hit=%v err=%v", got, hit, err)
	}
	if err := InvalidateProductSnapshots(ctx, 3, 0); err != nil {
		t.Fatalf("invalidate on disabled cache should be noop: %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "bk"
	if got := buildKey(productSnapshotKey(7)); got != "bk:product:snapshot:7" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := buildKey(" "); got != "bk" {
		t.Fatalf("blank key should fallback to prefix, got %s", got)
	}
}

func TestBuildProductSnapshotNil(t *testing.T) {
	if BuildProductSnapshot(nil) != nil {
		t.Fatalf("nil product should produce nil snapshot")
	}
}
