package outbox

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// LogPublisher — publisher для работы без Kafka: пишет событие в лог и
// считает его опубликованным, чтобы outbox не рос бесконечно.
type LogPublisher struct {
	logger *log.Entry
}

// NewLogPublisher создаёт LogPublisher.
func NewLogPublisher(logger *log.Entry) *LogPublisher {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &LogPublisher{logger: logger}
}

// Publish логирует событие и всегда возвращает nil.
func (p *LogPublisher) Publish(msg domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"outbox_id":      msg.ID,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"event_type":     msg.EventType,
	}).Info("outbox event published to log")
	return nil
}
