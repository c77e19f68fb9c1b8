package models

import "time"

// OutboxEvent 事务发件箱事件，与业务写入同一事务落库
type OutboxEvent struct {
	ID        uint       `gorm:"primarykey" json:"id"`                                  // 主键
	EventID   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_id"` // 事件ID
	Topic     string     `gorm:"type:varchar(128);index;not null" json:"topic"`         // 主题
	Key       string     `gorm:"type:varchar(128)" json:"key"`                          // 分区键
	Payload   string     `gorm:"type:text;not null" json:"payload"`                     // 事件内容
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`                    // 投递次数
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`                 // 最近一次投递错误
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	SentAt    *time.Time `gorm:"index" json:"sent_at,omitempty"`                        // 投递时间
}

// TableName 指定表名
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
