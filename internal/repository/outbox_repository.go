package repository

import (
	"time"

	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository 事务发件箱数据访问接口
type OutboxRepository interface {
	Insert(event *models.OutboxEvent) error
	FetchPending(limit int) ([]models.OutboxEvent, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkFailed(id uint, reason string) error
	WithTx(tx *gorm.DB) *GormOutboxRepository
}

// GormOutboxRepository GORM 实现
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建发件箱仓库
func NewOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	if tx == nil {
		return r
	}
	return &GormOutboxRepository{db: tx}
}

// Insert 写入事件
func (r *GormOutboxRepository) Insert(event *models.OutboxEvent) error {
	return r.db.Create(event).Error
}

// FetchPending 按写入顺序获取待投递事件
func (r *GormOutboxRepository) FetchPending(limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.OutboxEvent
	if err := r.db.Where("sent_at IS NULL").Order("id asc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// MarkSent 标记事件已投递
func (r *GormOutboxRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", sentAt).Error
}

// MarkFailed 记录投递失败
func (r *GormOutboxRepository) MarkFailed(id uint, reason string) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
