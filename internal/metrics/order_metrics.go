package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики координатора заказов и столов.
type OrderMetrics struct {
	ordersCreated   prometheus.Counter
	ordersPaid      prometheus.Counter
	ordersCancelled prometheus.Counter
	transitions     *prometheus.CounterVec

	tableConflicts     prometheus.Counter
	consistencyHazards prometheus.Counter

	createDuration prometheus.Histogram

	openOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик координатора.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_orders_created_total",
			Help: "Total number of orders created",
		})),
		ordersPaid: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_orders_paid_total",
			Help: "Total number of orders marked paid",
		})),
		ordersCancelled: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		})),
		transitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cafe_order_transitions_total",
			Help: "Total number of fulfillment transitions grouped by target status",
		}, []string{"target"})),
		tableConflicts: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_table_version_conflicts_total",
			Help: "Total number of optimistic-version conflicts on table updates",
		})),
		consistencyHazards: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cafe_consistency_hazards_total",
			Help: "Total number of partially applied order/table write pairs",
		})),
		createDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafe_create_order_duration_seconds",
			Help:    "Duration of create-order operations in seconds",
			Buckets: prometheus.DefBuckets,
		})),
		openOrders: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cafe_open_orders",
			Help: "Number of currently open (unpaid, non-cancelled) orders",
		})),
	}
}

// register регистрирует collector; при повторной регистрации возвращает
// уже существующий, чтобы повторная инициализация не падала.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			panic(fmt.Sprintf("collector already registered with unexpected type: %v", err))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector: %v", err))
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.openOrders.Inc()
}

// RecordOrderPaid увеличивает счётчик оплаченных заказов.
func (m *OrderMetrics) RecordOrderPaid() {
	m.ordersPaid.Inc()
	m.openOrders.Dec()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
	m.openOrders.Dec()
}

// RecordTransition увеличивает счётчик переходов выполнения.
func (m *OrderMetrics) RecordTransition(target string) {
	m.transitions.WithLabelValues(target).Inc()
}

// RecordTableConflict увеличивает счётчик конфликтов версий стола.
func (m *OrderMetrics) RecordTableConflict() {
	m.tableConflicts.Inc()
}

// RecordConsistencyHazard фиксирует частично применённую парную запись.
func (m *OrderMetrics) RecordConsistencyHazard() {
	m.consistencyHazards.Inc()
}

// RecordCreateDuration записывает длительность create-order.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}
