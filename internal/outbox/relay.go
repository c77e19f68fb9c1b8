package outbox

import (
	"context"
	"time"

	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"
)

const defaultBatchSize = 100

// Publisher 事件投递接口
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Relay 发件箱转发器：读取未投递事件并按写入顺序投递
type Relay struct {
	repo      repository.OutboxRepository
	publisher Publisher
	metrics   *metrics.Metrics
	batchSize int
	now       func() time.Time
}

// NewRelay 创建转发器
func NewRelay(repo repository.OutboxRepository, publisher Publisher, m *metrics.Metrics, batchSize int) *Relay {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Relay{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// RunOnce 投递一批事件，返回成功条数
// 同一分区键的事件在前序失败后本轮不再投递，保证键内有序
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(r.batchSize)
	if err != nil {
		return 0, err
	}
	blocked := make(map[string]struct{})
	sent := 0
	for i := range events {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		event := &events[i]
		if _, ok := blocked[event.Key]; ok {
			continue
		}
		if err := r.publisher.Publish(ctx, event.Topic, event.Key, []byte(event.Payload)); err != nil {
			blocked[event.Key] = struct{}{}
			r.metrics.OutboxRelayed(event.Topic, "failed")
			r.markFailed(event, err)
			continue
		}
		if err := r.repo.MarkSent(event.ID, r.now()); err != nil {
			return sent, err
		}
		r.metrics.OutboxRelayed(event.Topic, "sent")
		sent++
	}
	return sent, nil
}

// Run 按固定间隔转发，直到 ctx 结束
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if sent, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warnw("outbox_relay_failed", "error", err)
		} else if sent > 0 {
			logger.Debugw("outbox_relay_sent", "count", sent)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Relay) markFailed(event *models.OutboxEvent, cause error) {
	logger.Warnw("outbox_publish_failed",
		"event_id", event.EventID,
		"topic", event.Topic,
		"attempts", event.Attempts+1,
		"error", cause,
	)
	if err := r.repo.MarkFailed(event.ID, cause.Error()); err != nil {
		logger.Errorw("outbox_mark_failed_error", "event_id", event.EventID, "error", err)
	}
}
