package worker

import (
	"context"
	"errors"
	"time"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/outbox"
	"github.com/bookstore-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = time.Minute

// Service 异步队列服务，同时承载预占清扫与发件箱转发循环
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	relay    *outbox.Relay
	cancel   context.CancelFunc
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// WithRelay 挂载发件箱转发器
func (s *Service) WithRelay(relay *outbox.Relay) *Service {
	if s != nil {
		s.relay = relay
	}
	return s
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.StockLedger != nil {
		go s.runReservationSweepLoop(loopCtx)
	}
	if s.relay != nil {
		go s.relay.Run(loopCtx, s.outboxInterval())
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	if s.cancel != nil {
		s.cancel()
	}
	s.server.Shutdown()
	return nil
}

func (s *Service) runReservationSweepLoop(ctx context.Context) {
	interval, batch := s.sweepSettings()
	runOnce := func() {
		released, err := SweepExpiredReservations(ctx, s.consumer, batch)
		if err != nil {
			logger.Warnw("worker_reservation_sweep_failed", "error", err)
			return
		}
		if released > 0 {
			logger.Infow("worker_reservation_sweep_released", "released", released)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// SweepExpiredReservations 释放一批已过期的预占，并退还释放后遗留的扣款
func SweepExpiredReservations(ctx context.Context, consumer *Consumer, batch int) (int, error) {
	if consumer == nil || consumer.Container == nil || consumer.StockLedger == nil {
		return 0, errors.New("stock ledger not initialized")
	}
	released, err := consumer.StockLedger.ReleaseExpired(ctx, time.Now(), batch)
	if err != nil {
		return released, err
	}
	if consumer.ChargeRecovery == nil {
		return released, nil
	}
	refunded, err := consumer.ChargeRecovery.RefundOrphaned(ctx, batch)
	if err != nil {
		return released, err
	}
	if refunded > 0 {
		logger.Infow("worker_reservation_sweep_refunded", "refunded", refunded)
	}
	return released, nil
}

func (s *Service) sweepSettings() (time.Duration, int) {
	interval := defaultSweepInterval
	batch := 100
	if s.consumer.Config != nil {
		checkout := s.consumer.Config.Checkout
		if checkout.ReservationSweepSeconds > 0 {
			interval = time.Duration(checkout.ReservationSweepSeconds) * time.Second
		}
		if checkout.ReservationSweepBatchSize > 0 {
			batch = checkout.ReservationSweepBatchSize
		}
	}
	return interval, batch
}

func (s *Service) outboxInterval() time.Duration {
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.Config != nil && s.consumer.Config.Outbox.IntervalSeconds > 0 {
		return time.Duration(s.consumer.Config.Outbox.IntervalSeconds) * time.Second
	}
	return 2 * time.Second
}
