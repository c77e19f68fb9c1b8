package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 资金与库存补偿队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	client := asynq.NewClient(buildRedisOpt(cfg))
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue)}, opts...)
	_, err := c.client.Enqueue(task, options...)
	return err
}

// EnqueueReservationExpire 推送预占过期释放任务（延迟执行）
func (c *Client) EnqueueReservationExpire(payload ReservationExpirePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if delay < 0 {
		delay = 0
	}
	task, err := NewReservationExpireTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.TaskID("reservation-expire:"+payload.AttemptID),
	)
}

// EnqueuePaymentRefund 推送退款补偿任务
func (c *Client) EnqueuePaymentRefund(payload PaymentRefundPayload, maxRetry int) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentRefundTask(payload)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(CriticalQueue)}
	if maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(maxRetry))
	}
	return c.enqueue(task, opts...)
}

// EnqueueOrderCommitted 推送订单提交通知任务
func (c *Client) EnqueueOrderCommitted(payload OrderCommittedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderCommittedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task)
}

// EnqueuePurchaseOrderReceived 推送采购到货通知任务
func (c *Client) EnqueuePurchaseOrderReceived(payload PurchaseOrderReceivedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPurchaseOrderReceivedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 5, DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
