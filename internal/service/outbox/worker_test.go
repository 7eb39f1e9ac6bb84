package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/memory"
)

type stubPublisher struct {
	published []domain.OutboxMessage
	failFirst int
}

func (p *stubPublisher) Publish(msg domain.OutboxMessage) error {
	if p.failFirst > 0 {
		p.failFirst--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, msg)
	return nil
}

func enqueue(t *testing.T, repo domain.OutboxRepository, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return msg
}

func TestProcessOnce_PublishesAndMarksSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}
	w := NewWorker(repo, publisher, WithRetryDelay(0))

	enqueue(t, repo, "order.created")
	enqueue(t, repo, "order.paid")

	w.ProcessOnce(context.Background())

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(publisher.published))
	}
	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Errorf("expected empty backlog, got %d", stats.PendingCount)
	}
}

func TestProcessOnce_RetriesTransientFailure(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failFirst: 2}
	w := NewWorker(repo, publisher, WithRetryDelay(0), WithMaxAttempts(3))

	enqueue(t, repo, "order.created")

	w.ProcessOnce(context.Background())

	if len(publisher.published) != 1 {
		t.Fatalf("expected message published after retries, got %d", len(publisher.published))
	}
}

func TestProcessOnce_RoutesToDLQAfterExhaustedAttempts(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failFirst: 100}
	dlq := &stubPublisher{}
	w := NewWorker(repo, publisher,
		WithRetryDelay(0),
		WithMaxAttempts(2),
		WithDLQPublisher(dlq),
	)

	msg := enqueue(t, repo, "order.created")

	w.ProcessOnce(context.Background())

	if len(publisher.published) != 0 {
		t.Fatalf("message must not reach main topic, got %d", len(publisher.published))
	}
	if len(dlq.published) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.published))
	}
	if dlq.published[0].ID != msg.ID {
		t.Errorf("DLQ message id mismatch: %s", dlq.published[0].ID)
	}
	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Errorf("failed message must leave pending state, got %d", stats.PendingCount)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}
	w := NewWorker(repo, publisher, WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}
