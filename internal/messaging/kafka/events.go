package kafka

import "github.com/vladislavdragonenkov/cafe-oms/internal/domain"

// Topics для Kafka.
const (
	TopicOrderEvents     = "cafe.order.events"
	TopicTableEvents     = "cafe.table.events"
	TopicDeadLetterQueue = "cafe.dlq"
)

// TopicForAggregate выбирает topic по типу агрегата outbox-события:
// события столов идут отдельным потоком от событий заказов.
func TopicForAggregate(aggregateType string) string {
	if aggregateType == domain.AggregateTable {
		return TopicTableEvents
	}
	return TopicOrderEvents
}
