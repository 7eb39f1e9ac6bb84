package coordinator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/metrics"
)

// LineRequest — запрошенная позиция заказа. Цена клиента не принимается:
// в заказ попадает только текущая цена продукта из каталога.
type LineRequest struct {
	ProductID string
	Quantity  int32
}

// CreateOrderRequest — параметры создания заказа.
type CreateOrderRequest struct {
	TableID    string
	GuestCount int
	Lines      []LineRequest
	CreatedBy  string
}

// Coordinator связывает жизненные циклы заказа и стола: создание заказа
// занимает стол, оплата или отмена освобождают его. Парная запись не
// транзакционна, поэтому сначала всегда пишется заказ, затем стол; провал
// второй записи компенсируется и репортится как операционный инцидент.
type Coordinator struct {
	orders   domain.OrderRepository
	tables   domain.TableRepository
	products domain.ProductProvider
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// New создаёт рабочий экземпляр координатора.
func New(
	orders domain.OrderRepository,
	tables domain.TableRepository,
	products domain.ProductProvider,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Coordinator {
	if logger == nil {
		logger = log.New().WithField("component", "coordinator")
	}
	return &Coordinator{
		orders:   orders,
		tables:   tables,
		products: products,
		outbox:   outbox,
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewWithoutMetrics создаёт координатор без метрик (для тестов).
func NewWithoutMetrics(
	orders domain.OrderRepository,
	tables domain.TableRepository,
	products domain.ProductProvider,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Coordinator {
	c := New(orders, tables, products, outbox, logger)
	c.metrics = nil
	return c
}

// CreateOrder создаёт заказ и занимает стол. Предусловия проверяются по
// порядку, первый провал выигрывает: стол существует; стол не occupied
// (бронь заказу не мешает); 1 <= guest_count <= capacity; каждый продукт
// существует и доступен.
func (c *Coordinator) CreateOrder(req CreateOrderRequest) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	table, err := c.tables.Get(req.TableID)
	if err != nil {
		return domain.Order{}, err
	}
	if table.Status == domain.TableOccupied {
		return domain.Order{}, domain.ErrTableOccupied
	}
	if req.GuestCount < 1 || req.GuestCount > table.Capacity {
		return domain.Order{}, domain.ErrGuestCountInvalid
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return domain.Order{}, domain.ErrItemQtyInvalid
		}
		product, err := c.products.Snapshot(line.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if !product.Available {
			return domain.Order{}, domain.ErrProductUnavailable
		}
		// Название и цена копируются из снимка продукта; поздние правки
		// каталога исторические заказы не меняют.
		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       line.Quantity,
			UnitPriceMinor: product.PriceMinor,
		})
	}
	if len(items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		TableID:     table.ID,
		CreatedBy:   req.CreatedBy,
		Items:       items,
		TotalMinor:  domain.TotalFromItems(items),
		GuestCount:  req.GuestCount,
		Status:      domain.OrderStatusPending,
		Fulfillment: domain.FulfillmentPending,
		Payment:     domain.PaymentUnpaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Сначала заказ, затем стол: читатель не должен увидеть occupied-стол
	// без существующего заказа.
	if err := c.orders.Create(order); err != nil {
		return domain.Order{}, err
	}

	table.Occupy(order.ID, now)
	if err := c.tables.Save(table); err != nil {
		// Компенсация: стол не занят, заказ отменяется, инцидент репортится.
		c.compensateCreate(order, err)
		if domain.IsVersionConflict(err) {
			if c.metrics != nil {
				c.metrics.RecordTableConflict()
			}
			return domain.Order{}, domain.ErrTableVersionConflict
		}
		return domain.Order{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordOrderCreated()
	}
	c.emitEvent(order.ID, domain.EventTypeOrderCreated, map[string]interface{}{
		"table_id":    order.TableID,
		"created_by":  order.CreatedBy,
		"total_minor": order.TotalMinor,
		"guest_count": order.GuestCount,
	})
	c.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
	}).Info("order created, table occupied")

	return order, nil
}

// Transition переводит заказ в целевой этап выполнения. Прямой путь
// pending→confirmed→preparing→ready→served; cancelled достижим из любого
// нетерминального состояния и всегда освобождает стол, если тот ещё
// указывает на заказ.
func (c *Coordinator) Transition(orderID string, target domain.FulfillmentStatus) (domain.Order, error) {
	if !domain.IsValidFulfillment(target) {
		return domain.Order{}, domain.ErrIllegalTransition
	}

	order, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(order.Fulfillment, target) {
		return domain.Order{}, domain.ErrIllegalTransition
	}

	now := time.Now().UTC()
	order.Fulfillment = target
	order.MilestoneStamp(target, now)
	order.SyncLegacyStatus()
	order.UpdatedAt = now

	if err := c.orders.Update(order); err != nil {
		return domain.Order{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordTransition(string(target))
		if target == domain.FulfillmentCancelled {
			c.metrics.RecordOrderCancelled()
		}
	}

	if target == domain.FulfillmentCancelled {
		// Отмена освобождает стол в рамках того же логического перехода.
		c.releaseTableFor(order)
		c.emitEvent(order.ID, domain.EventTypeOrderCancelled, map[string]interface{}{
			"table_id": order.TableID,
		})
	} else {
		c.emitEvent(order.ID, domain.EventTypeOrderStatusChanged, map[string]interface{}{
			"fulfillment": string(target),
		})
	}

	return order, nil
}

// MarkPaid помечает заказ оплаченным и закрывает занятость стола. Оплата
// ортогональна выполнению и допустима на любом его этапе; повторный вызов —
// ошибка, а не no-op.
func (c *Coordinator) MarkPaid(orderID string) (domain.Order, error) {
	order, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Payment == domain.PaymentPaid {
		return domain.Order{}, domain.ErrOrderAlreadyPaid
	}

	now := time.Now().UTC()
	order.Payment = domain.PaymentPaid
	order.PaidAt = &now
	order.SyncLegacyStatus()
	order.UpdatedAt = now

	if err := c.orders.Update(order); err != nil {
		return domain.Order{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordOrderPaid()
	}

	c.releaseTableFor(order)
	c.emitEvent(order.ID, domain.EventTypeOrderPaid, map[string]interface{}{
		"table_id":    order.TableID,
		"total_minor": order.TotalMinor,
	})
	c.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
	}).Info("order paid, table released")

	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (c *Coordinator) GetOrder(orderID string) (domain.Order, error) {
	return c.orders.Get(orderID)
}

// ListOrders возвращает заказы свежие-первые; onlyOpen — только открытые.
func (c *Coordinator) ListOrders(onlyOpen bool) ([]domain.Order, error) {
	return c.orders.List(onlyOpen)
}

// HistoryByTable возвращает историю заказов стола.
func (c *Coordinator) HistoryByTable(tableID string) ([]domain.Order, error) {
	return c.orders.ListByTable(tableID)
}

// HistoryByUser возвращает историю заказов пользователя.
func (c *Coordinator) HistoryByUser(userID string) ([]domain.Order, error) {
	return c.orders.ListByUser(userID)
}

// releaseTableFor освобождает стол, если тот всё ещё указывает на заказ.
// Конфликт версии перечитывается один раз: если стол уже не ссылается на
// заказ, освобождать нечего, иначе это consistency hazard.
func (c *Coordinator) releaseTableFor(order domain.Order) {
	for attempt := 0; attempt < 2; attempt++ {
		table, err := c.tables.Get(order.TableID)
		if err != nil {
			c.reportHazard(order, "table read failed during release", err)
			return
		}
		if table.CurrentOrderID != order.ID {
			return
		}

		table.MakeAvailable(time.Now().UTC())
		err = c.tables.Save(table)
		if err == nil {
			return
		}
		if !domain.IsVersionConflict(err) {
			c.reportHazard(order, "table release failed", err)
			return
		}
		if c.metrics != nil {
			c.metrics.RecordTableConflict()
		}
	}
	c.reportHazard(order, "table release lost the version race twice", domain.ErrTableVersionConflict)
}

// compensateCreate отменяет только что созданный заказ после провала парной
// записи стола, чтобы не оставить occupied-подобное состояние без стола.
func (c *Coordinator) compensateCreate(order domain.Order, cause error) {
	now := time.Now().UTC()
	order.Fulfillment = domain.FulfillmentCancelled
	order.SyncLegacyStatus()
	order.UpdatedAt = now

	if err := c.orders.Update(order); err != nil {
		// Компенсация тоже не прошла: заказ висит без стола, нужен разбор руками.
		c.reportHazard(order, "compensation failed after table write failure", err)
		return
	}
	c.reportHazard(order, "table write failed, order compensated", cause)
}

// reportHazard фиксирует нарушение парной согласованности как операционный
// инцидент: error-лог, метрика и событие для внешнего алертинга. Восстановление
// выполняется административным release.
func (c *Coordinator) reportHazard(order domain.Order, msg string, cause error) {
	if c.metrics != nil {
		c.metrics.RecordConsistencyHazard()
	}
	c.logger.WithError(cause).WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
		"alert":    "consistency_hazard",
	}).Error(msg)
	c.emitEvent(order.ID, domain.EventTypeTableSyncFailed, map[string]interface{}{
		"table_id": order.TableID,
		"reason":   msg,
	})
}

// emitEvent кладёт событие жизненного цикла заказа в outbox; публикацией
// занимается отдельный воркер. Отсутствие outbox допустимо (локальная разработка).
func (c *Coordinator) emitEvent(orderID string, eventType domain.EventType, metadata map[string]interface{}) {
	if c.outbox == nil {
		return
	}

	data, err := json.Marshal(domain.NewLifecycleEvent(eventType, orderID, metadata))
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := c.outbox.Enqueue(msg); err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Error("enqueue event failed")
	}
}
