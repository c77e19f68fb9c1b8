package outbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type publishedMessage struct {
	topic   string
	key     string
	payload string
}

type fakePublisher struct {
	failKeys map[string]bool
	sent     []publishedMessage
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	if p.failKeys[key] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, publishedMessage{topic: topic, key: key, payload: string(payload)})
	return nil
}

func setupRelayTest(t *testing.T) (*gorm.DB, *repository.GormOutboxRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:outbox_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate outbox failed: %v", err)
	}
	return db, repository.NewOutboxRepository(db)
}

func insertEvent(t *testing.T, repo *repository.GormOutboxRepository, eventID, key string) {
	t.Helper()
	event := &models.OutboxEvent{
		EventID: eventID,
		Topic:   "bookstore.order.committed",
		Key:     key,
		Payload: fmt.Sprintf(`{"event_id":%q}`, eventID),
	}
	if err := repo.Insert(event); err != nil {
		t.Fatalf("insert outbox event failed: %v", err)
	}
}

func TestRelayRunOncePublishesInOrder(t *testing.T) {
	db, repo := setupRelayTest(t)
	insertEvent(t, repo, "evt-1", "BK1")
	insertEvent(t, repo, "evt-2", "BK2")
	insertEvent(t, repo, "evt-3", "BK1")

	publisher := &fakePublisher{}
	relay := NewRelay(repo, publisher, nil, 10)
	sent, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if sent != 3 {
		t.Fatalf("sent want 3 got %d", sent)
	}
	want := []string{"evt-1", "evt-2", "evt-3"}
	for i, msg := range publisher.sent {
		if msg.payload != fmt.Sprintf(`{"event_id":%q}`, want[i]) {
			t.Fatalf("message %d out of order: %s", i, msg.payload)
		}
	}

	var pending int64
	if err := db.Model(&models.OutboxEvent{}).Where("sent_at IS NULL").Count(&pending).Error; err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending events, got %d", pending)
	}

	sent, err = relay.RunOnce(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("second run should be empty: sent=%d err=%v", sent, err)
	}
}

func TestRelayBlocksKeyAfterFailure(t *testing.T) {
	db, repo := setupRelayTest(t)
	insertEvent(t, repo, "evt-1", "BK1")
	insertEvent(t, repo, "evt-2", "BK2")
	insertEvent(t, repo, "evt-3", "BK1")

	publisher := &fakePublisher{failKeys: map[string]bool{"BK1": true}}
	relay := NewRelay(repo, publisher, nil, 10)
	sent, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if sent != 1 || len(publisher.sent) != 1 || publisher.sent[0].key != "BK2" {
		t.Fatalf("only BK2 should be published, got %+v", publisher.sent)
	}

	var failed models.OutboxEvent
	if err := db.Where("event_id = ?", "evt-1").First(&failed).Error; err != nil {
		t.Fatalf("load failed event: %v", err)
	}
	if failed.Attempts != 1 || failed.LastError == "" || failed.SentAt != nil {
		t.Fatalf("failed event not recorded: %+v", failed)
	}
	var skipped models.OutboxEvent
	if err := db.Where("event_id = ?", "evt-3").First(&skipped).Error; err != nil {
		t.Fatalf("load skipped event: %v", err)
	}
	if skipped.Attempts != 0 || skipped.SentAt != nil {
		t.Fatalf("event behind failed key must stay untouched: %+v", skipped)
	}

	publisher.failKeys = nil
	sent, err = relay.RunOnce(context.Background())
	if err != nil || sent != 2 {
		t.Fatalf("retry should deliver remaining events: sent=%d err=%v", sent, err)
	}
	if publisher.sent[1].payload != `{"event_id":"evt-1"}` || publisher.sent[2].payload != `{"event_id":"evt-3"}` {
		t.Fatalf("retry out of order: %+v", publisher.sent)
	}
}

func TestKafkaClientBrokers(t *testing.T) {
	client := NewClient(" 127.0.0.1:9092, ,kafka:9092 ")
	if !client.Enabled() || len(client.Brokers) != 2 {
		t.Fatalf("unexpected brokers: %v", client.Brokers)
	}
	if NewClient("").Enabled() {
		t.Fatalf("empty broker list should be disabled")
	}
	err := NewKafkaPublisher(NewClient("")).Publish(context.Background(), "t", "k", []byte("{}"))
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("want ErrDisabled got %v", err)
	}
}
