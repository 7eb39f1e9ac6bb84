package kafka

import (
	"encoding/json"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// OutboxPublisher адаптирует Producer под контракт domain.OutboxPublisher:
// события из transactional outbox уходят в Kafka.
type OutboxPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт publisher. Пустой topic означает маршрутизацию
// по типу агрегата (заказы и столы в разные topics); непустой — фиксированный
// topic, например DLQ.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxPublisher {
	return &OutboxPublisher{producer: producer, topic: topic}
}

// Publish сериализует outbox-сообщение и отправляет его в Kafka.
// Ключом служит aggregate_id, чтобы события одного агрегата шли в одну партицию.
func (p *OutboxPublisher) Publish(event domain.OutboxMessage) error {
	topic := p.topic
	if topic == "" {
		topic = TopicForAggregate(event.AggregateType)
	}
	envelope := map[string]interface{}{
		"outbox_id":      event.ID,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"event_type":     event.EventType,
		"payload":        json.RawMessage(event.Payload),
	}
	return p.producer.PublishEvent(topic, event.AggregateID, envelope)
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
