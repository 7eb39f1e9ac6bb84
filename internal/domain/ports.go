package domain

import "time"

// ProductProvider отдаёт снимок продукта по идентификатору: существует ли,
// доступен ли и какая у него текущая цена. Not-found и unavailable различимы:
// отсутствие продукта — ErrProductNotFound, недоступность видна по полю Available.
type ProductProvider interface {
	Snapshot(productID string) (Product, error)
}

// OutboxMessage — запись transactional outbox: событие жизненного цикла,
// записанное вместе с изменением агрегата и публикуемое асинхронно.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats — размер и возраст backlog непубликованных событий.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxPublisher доставляет outbox-событие во внешний транспорт.
// Доставка at-least-once: publisher обязан переживать повторную отправку.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}

// OutboxRepository хранит события до подтверждённой публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
