package repository

import (
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
)

// StockReservationRepository 库存预占数据访问接口
type StockReservationRepository interface {
	Create(reservation *models.StockReservation) error
	ListByAttempt(attemptID string, status string) ([]models.StockReservation, error)
	ListExpiredHeld(now time.Time, limit int) ([]models.StockReservation, error)
	TransitionStatus(id uint, fromStatus, status string) (int64, error)
	ConsumeByAttempt(attemptID string, orderID uint) (int64, error)
	RecordCharge(attemptID, paymentRef string, amount models.Money, currency string) (int64, error)
	ClaimCharge(attemptID, paymentRef string) (int64, error)
	ListUnclaimedReleased(limit int) ([]models.StockReservation, error)
	WithTx(tx *gorm.DB) *GormStockReservationRepository
}

// GormStockReservationRepository GORM 实现
type GormStockReservationRepository struct {
	db *gorm.DB
}

// NewStockReservationRepository 创建库存预占仓库
func NewStockReservationRepository(db *gorm.DB) *GormStockReservationRepository {
	return &GormStockReservationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockReservationRepository) WithTx(tx *gorm.DB) *GormStockReservationRepository {
	if tx == nil {
		return r
	}
	return &GormStockReservationRepository{db: tx}
}

// Create 创建预占记录
func (r *GormStockReservationRepository) Create(reservation *models.StockReservation) error {
	return r.db.Create(reservation).Error
}

// ListByAttempt 获取结算尝试的预占记录，status 为空时返回全部
func (r *GormStockReservationRepository) ListByAttempt(attemptID string, status string) ([]models.StockReservation, error) {
	query := r.db.Where("attempt_id = ?", attemptID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reservations []models.StockReservation
	if err := query.Order("id asc").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListExpiredHeld 获取已过期仍处于预占状态的记录
func (r *GormStockReservationRepository) ListExpiredHeld(now time.Time, limit int) ([]models.StockReservation, error) {
	query := r.db.Where("status = ? AND expires_at <= ?", constants.ReservationStatusHeld, now).Order("expires_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var reservations []models.StockReservation
	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// TransitionStatus 条件更新预占状态
func (r *GormStockReservationRepository) TransitionStatus(id uint, fromStatus, status string) (int64, error) {
	result := r.db.Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ConsumeByAttempt 将结算尝试下所有预占记录标记为已消耗
func (r *GormStockReservationRepository) ConsumeByAttempt(attemptID string, orderID uint) (int64, error) {
	result := r.db.Model(&models.StockReservation{}).
		Where("attempt_id = ? AND status = ?", attemptID, constants.ReservationStatusHeld).
		Updates(map[string]interface{}{
			"status":   constants.ReservationStatusConsumed,
			"order_id": orderID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RecordCharge 在仍处于预占状态的记录上登记扣款
func (r *GormStockReservationRepository) RecordCharge(attemptID, paymentRef string, amount models.Money, currency string) (int64, error) {
	result := r.db.Model(&models.StockReservation{}).
		Where("attempt_id = ? AND status = ?", attemptID, constants.ReservationStatusHeld).
		Updates(map[string]interface{}{
			"payment_ref":    paymentRef,
			"charged_amount": amount,
			"currency":       currency,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClaimCharge 条件清空交易号，返回 0 表示已被其他流程认领
func (r *GormStockReservationRepository) ClaimCharge(attemptID, paymentRef string) (int64, error) {
	result := r.db.Model(&models.StockReservation{}).
		Where("attempt_id = ? AND payment_ref = ?", attemptID, paymentRef).
		Update("payment_ref", "")
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListUnclaimedReleased 获取已释放但扣款未被认领的记录
func (r *GormStockReservationRepository) ListUnclaimedReleased(limit int) ([]models.StockReservation, error) {
	query := r.db.Where("status = ? AND payment_ref <> ''", constants.ReservationStatusReleased).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var reservations []models.StockReservation
	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
