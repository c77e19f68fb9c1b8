package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bookstore-next/internal/config"
)

func TestNewPaymentRefundTaskCarriesPayload(t *testing.T) {
	task, err := NewPaymentRefundTask(PaymentRefundPayload{AttemptID: "att-1", TransactionID: "txn-9", Amount: "10.00", Currency: "USD"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskPaymentRefund {
		t.Fatalf("task type want %s got %s", TaskPaymentRefund, task.Type())
	}
	var decoded PaymentRefundPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.TransactionID != "txn-9" || decoded.Amount != "10.00" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueReservationExpire(ReservationExpirePayload{AttemptID: "a"}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	var nilClient *Client
	if err := nilClient.EnqueueOrderCommitted(OrderCommittedPayload{OrderID: 1}); err != nil {
		t.Fatalf("nil client enqueue should be noop, got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected redis addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 5 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
