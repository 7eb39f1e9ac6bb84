package domain

import "time"

// EventType определяет тип события жизненного цикла заказа или стола.
type EventType string

const (
	// События заказов.
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderPaid          EventType = "order.paid"
	EventTypeOrderCancelled     EventType = "order.cancelled"

	// События столов.
	EventTypeTableReserved EventType = "table.reserved"
	EventTypeTableReleased EventType = "table.released"

	// Операционный сигнал о частично применённой парной записи.
	EventTypeTableSyncFailed EventType = "order.table_sync_failed"
)

// Типы агрегатов, к которым привязываются события.
const (
	AggregateOrder = "order"
	AggregateTable = "table"
)

// LifecycleEvent — payload outbox-события: что произошло, с каким агрегатом
// и когда, плюс произвольные детали.
type LifecycleEvent struct {
	EventType   EventType              `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewLifecycleEvent создает новое событие жизненного цикла.
func NewLifecycleEvent(eventType EventType, aggregateID string, metadata map[string]interface{}) *LifecycleEvent {
	return &LifecycleEvent{
		EventType:   eventType,
		AggregateID: aggregateID,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
	}
}
