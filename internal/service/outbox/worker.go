package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

const (
	defaultPollInterval = 1 * time.Second
	defaultBatchSize    = 50
	defaultMaxAttempts  = 3
	defaultRetryDelay   = 100 * time.Millisecond
)

var (
	publishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_outbox_publish_attempts_total",
		Help: "Total number of outbox publish attempts grouped by result.",
	}, []string{"result"})
	pendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_outbox_pending_records",
		Help: "Current number of pending records in transactional outbox.",
	})
	oldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox record.",
	})
)

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithDLQPublisher задаёт publisher для событий, исчерпавших попытки.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) { w.pollInterval = interval }
}

// WithBatchSize задаёт размер выборки за один цикл.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) { w.batchSize = batchSize }
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) { w.maxAttempts = maxAttempts }
}

// WithRetryDelay задаёт базовую задержку exponential backoff.
func WithRetryDelay(delay time.Duration) Option {
	return func(w *Worker) { w.retryDelay = delay }
}

// Worker разбирает transactional outbox: публикует pending-события в брокер,
// помечает отправленные и после исчерпания попыток отправляет событие в DLQ.
type Worker struct {
	repo         domain.OutboxRepository
	publisher    domain.OutboxPublisher
	dlq          domain.OutboxPublisher
	logger       *log.Entry
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	retryDelay   time.Duration
}

// NewWorker создаёт outbox worker с разумными значениями по умолчанию.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:         repo,
		publisher:    publisher,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		maxAttempts:  defaultMaxAttempts,
		retryDelay:   defaultRetryDelay,
	}
	for _, option := range options {
		option(w)
	}

	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = defaultMaxAttempts
	}
	if w.retryDelay < 0 {
		w.retryDelay = 0
	}
	return w
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл опроса и публикации.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.refreshBacklog()

	messages, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return
	}
	if len(messages) == 0 {
		return
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}
		w.deliver(ctx, msg)
	}

	w.refreshBacklog()
}

func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) {
	err := w.publishWithRetry(ctx, msg)
	if err == nil {
		if markErr := w.repo.MarkSent(msg.ID); markErr != nil {
			w.logger.WithError(markErr).WithField("outbox_id", msg.ID).Warn("failed to mark outbox as sent")
		}
		return
	}

	w.logger.WithError(err).WithFields(log.Fields{
		"outbox_id":  msg.ID,
		"event_type": msg.EventType,
	}).Error("outbox publish failed after retries")
	publishAttempts.WithLabelValues("failed").Inc()

	if dlqErr := w.publishToDLQ(msg, err); dlqErr != nil {
		w.logger.WithError(dlqErr).WithField("outbox_id", msg.ID).Warn("failed to publish to DLQ")
		publishAttempts.WithLabelValues("dlq_failed").Inc()
	}
	if markErr := w.repo.MarkFailed(msg.ID); markErr != nil {
		w.logger.WithError(markErr).WithField("outbox_id", msg.ID).Warn("failed to mark outbox as failed")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error
	delay := w.retryDelay

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(msg)
		if err == nil {
			publishAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		publishAttempts.WithLabelValues("retry_error").Inc()

		if attempt >= w.maxAttempts || delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

func (w *Worker) publishToDLQ(msg domain.OutboxMessage, publishErr error) error {
	if w.dlq == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"outbox_id":      msg.ID,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"event_type":     msg.EventType,
		"payload":        json.RawMessage(msg.Payload),
		"publish_error":  publishErr.Error(),
		"failed_at":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dlqMsg := msg
	dlqMsg.Payload = payload
	if err := w.dlq.Publish(dlqMsg); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func (w *Worker) refreshBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	pendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		oldestPendingAge.Set(0)
		return
	}
	age := time.Since(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	oldestPendingAge.Set(age)
}
