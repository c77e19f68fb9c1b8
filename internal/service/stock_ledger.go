package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/bookstore-next/internal/cache"
	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultCASMaxAttempts = 3
	defaultCASBackoff     = 5 * time.Millisecond
)

// StockLine 一次库存预占的商品与数量
type StockLine struct {
	ProductID uint
	Quantity  int
}

// StockLedger 库存台账，所有库存写入均经由版本号 CAS
type StockLedger struct {
	db              *gorm.DB
	tx              *gorm.DB
	productRepo     repository.ProductRepository
	reservationRepo repository.StockReservationRepository
	maxAttempts     int
	backoff         time.Duration
	metrics         *metrics.Metrics
}

// NewStockLedger 创建库存台账
func NewStockLedger(db *gorm.DB, productRepo repository.ProductRepository, reservationRepo repository.StockReservationRepository, cfg config.InventoryConfig, m *metrics.Metrics) *StockLedger {
	maxAttempts := cfg.CASMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultCASMaxAttempts
	}
	backoff := time.Duration(cfg.CASBackoffMillis) * time.Millisecond
	if backoff <= 0 {
		backoff = defaultCASBackoff
	}
	return &StockLedger{
		db:              db,
		productRepo:     productRepo,
		reservationRepo: reservationRepo,
		maxAttempts:     maxAttempts,
		backoff:         backoff,
		metrics:         m,
	}
}

// WithTx 绑定外部事务，绑定后不再自行失效缓存，由调用方在提交后处理
func (l *StockLedger) WithTx(tx *gorm.DB) *StockLedger {
	if tx == nil {
		return l
	}
	clone := *l
	clone.tx = tx
	return &clone
}

// Reserve 扣减库存
func (l *StockLedger) Reserve(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return l.adjust(ctx, productID, -quantity, nil)
}

// Restock 回补库存，无上限
func (l *StockLedger) Restock(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return l.adjust(ctx, productID, quantity, nil)
}

// Hold 为结算尝试逐行预占库存并写入预占记录
// 任一行失败时释放本次尝试已预占的全部库存后返回错误
func (l *StockLedger) Hold(ctx context.Context, attemptID string, lines []StockLine, ttl time.Duration) ([]models.StockReservation, error) {
	if attemptID == "" || len(lines) == 0 {
		return nil, ErrInvalidQuantity
	}
	sorted := make([]StockLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	expiresAt := time.Now().Add(ttl)
	held := make([]models.StockReservation, 0, len(sorted))
	for _, line := range sorted {
		if line.Quantity <= 0 {
			l.releaseAfterFailure(ctx, attemptID)
			return nil, ErrInvalidQuantity
		}
		reservation := models.StockReservation{
			AttemptID: attemptID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Status:    constants.ReservationStatusHeld,
			ExpiresAt: expiresAt,
		}
		err := l.adjust(ctx, line.ProductID, -line.Quantity, func(tx *gorm.DB) error {
			return l.reservationRepo.WithTx(tx).Create(&reservation)
		})
		if err != nil {
			l.releaseAfterFailure(ctx, attemptID)
			return nil, err
		}
		held = append(held, reservation)
	}
	return held, nil
}

// ReleaseAttempt 释放结算尝试下仍处于预占状态的库存，可重复调用
func (l *StockLedger) ReleaseAttempt(ctx context.Context, attemptID string) (int, error) {
	reservations, err := l.reservationRepo.ListByAttempt(attemptID, constants.ReservationStatusHeld)
	if err != nil {
		return 0, err
	}
	released := 0
	for i := range reservations {
		ok, err := l.releaseReservation(ctx, &reservations[i])
		if err != nil {
			return released, err
		}
		if ok {
			released++
		}
	}
	return released, nil
}

// ReleaseExpired 释放已过期的预占记录
func (l *StockLedger) ReleaseExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	reservations, err := l.reservationRepo.ListExpiredHeld(now, limit)
	if err != nil {
		return 0, err
	}
	released := 0
	for i := range reservations {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		ok, err := l.releaseReservation(ctx, &reservations[i])
		if err != nil {
			logger.Warnw("stock_ledger_release_expired_failed",
				"reservation_id", reservations[i].ID,
				"attempt_id", reservations[i].AttemptID,
				"error", err,
			)
			continue
		}
		if ok {
			released++
		}
	}
	l.metrics.ReservationReleased("expired", released)
	return released, nil
}

// releaseReservation 状态迁移与回补库存在同一事务内完成
func (l *StockLedger) releaseReservation(ctx context.Context, reservation *models.StockReservation) (bool, error) {
	released := false
	err := l.runInTx(func(tx *gorm.DB) error {
		rows, err := l.reservationRepo.WithTx(tx).TransitionStatus(reservation.ID, constants.ReservationStatusHeld, constants.ReservationStatusReleased)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		if err := l.WithTx(tx).adjust(ctx, reservation.ProductID, reservation.Quantity, nil); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if released && l.tx == nil {
		l.invalidate(ctx, reservation.ProductID)
	}
	return released, nil
}

func (l *StockLedger) releaseAfterFailure(ctx context.Context, attemptID string) {
	released, err := l.ReleaseAttempt(context.WithoutCancel(ctx), attemptID)
	if err != nil {
		logger.Errorw("stock_ledger_release_attempt_failed", "attempt_id", attemptID, "error", err)
		return
	}
	l.metrics.ReservationReleased("hold_failed", released)
}

// adjust 以 CAS 调整库存，冲突时重新读取并有限次重试
// after 非空时与库存写入处于同一事务
func (l *StockLedger) adjust(ctx context.Context, productID uint, delta int, after func(tx *gorm.DB) error) error {
	if productID == 0 || delta == 0 {
		return ErrInvalidQuantity
	}
	operation := "restock"
	if delta < 0 {
		operation = "reserve"
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		applied := false
		err := l.runAttempt(after != nil, func(tx *gorm.DB) error {
			productRepo := l.productRepo
			if tx != nil {
				productRepo = l.productRepo.WithTx(tx)
			}
			product, err := productRepo.GetByID(productID)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			if delta < 0 && product.StockQty < -delta {
				return &InsufficientStockError{ProductID: productID, Requested: -delta, Available: product.StockQty}
			}
			rows, err := productRepo.CompareAndSwapStock(productID, product.Version, delta)
			if err != nil {
				return err
			}
			if rows == 0 {
				return nil
			}
			if after != nil {
				if err := after(tx); err != nil {
					return err
				}
			}
			applied = true
			return nil
		})
		if err != nil {
			return err
		}
		if applied {
			l.metrics.StockWritten(operation)
			if l.tx == nil {
				l.invalidate(ctx, productID)
			}
			return nil
		}

		exhausted := attempt >= l.maxAttempts
		l.metrics.StockConflict(operation, exhausted)
		if exhausted {
			logger.Warnw("stock_ledger_cas_exhausted",
				"product_id", productID,
				"delta", delta,
				"attempts", attempt,
			)
			return fmt.Errorf("%w: product %d", ErrStockConflict, productID)
		}
		logger.Debugw("stock_ledger_cas_conflict", "product_id", productID, "attempt", attempt)
		if err := l.sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
}

// runAttempt 单次尝试：已绑定事务时直接复用；需要附带写入时开启短事务
func (l *StockLedger) runAttempt(needTx bool, fn func(tx *gorm.DB) error) error {
	if l.tx != nil {
		return fn(l.tx)
	}
	if !needTx {
		return fn(nil)
	}
	return l.db.Transaction(fn)
}

func (l *StockLedger) runInTx(fn func(tx *gorm.DB) error) error {
	if l.tx != nil {
		return fn(l.tx)
	}
	return l.db.Transaction(fn)
}

func (l *StockLedger) sleepBackoff(ctx context.Context, attempt int) error {
	base := l.backoff * time.Duration(attempt)
	jitter := time.Duration(rand.Int64N(int64(l.backoff) + 1))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *StockLedger) invalidate(ctx context.Context, productIDs ...uint) {
	if err := cache.InvalidateProductSnapshots(context.WithoutCancel(ctx), productIDs...); err != nil {
		logger.Warnw("product_snapshot_invalidate_failed", "product_ids", productIDs, "error", err)
	}
}

// InvalidateSnapshots 事务提交后由调用方失效快照
func (l *StockLedger) InvalidateSnapshots(ctx context.Context, productIDs ...uint) {
	l.invalidate(ctx, productIDs...)
}
