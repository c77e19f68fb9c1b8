package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDisabled 未配置 broker
var ErrDisabled = errors.New("kafka disabled")

// Client Kafka 连接信息
type Client struct {
	Brokers []string
}

// NewClient 由逗号分隔的 broker 列表创建客户端
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

// Enabled 是否配置了 broker
func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// NewWriter 创建按 key 哈希分区的写入器
func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// PublishJSON 序列化并写入一条消息
func PublishJSON(ctx context.Context, writer *kafka.Writer, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

// KafkaPublisher 基于 kafka-go 的事件投递器，每个主题复用一个 writer
type KafkaPublisher struct {
	client  *Client
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher 创建投递器
func NewKafkaPublisher(client *Client) *KafkaPublisher {
	return &KafkaPublisher{client: client, writers: make(map[string]*kafka.Writer)}
}

// Publish 投递事件
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if !p.client.Enabled() {
		return ErrDisabled
	}
	return PublishJSON(ctx, p.writer(topic), key, json.RawMessage(payload))
}

// Close 关闭全部 writer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}

func (p *KafkaPublisher) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.client.NewWriter(topic)
	p.writers[topic] = w
	return w
}
