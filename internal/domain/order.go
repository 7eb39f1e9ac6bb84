package domain

import "time"

// OrderStatus — легаси-статус заказа, сохранён для совместимости с отчётами.
// Синхронизируется с парой Fulfillment/Payment в одном месте (Order.SyncLegacyStatus).
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ещё не закрыт.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusServed — заказ подан гостям.
	OrderStatusServed OrderStatus = "served"
	// OrderStatusPaid — заказ оплачен.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// FulfillmentStatus описывает этап выполнения заказа на кухне/в зале.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentConfirmed FulfillmentStatus = "confirmed"
	FulfillmentPreparing FulfillmentStatus = "preparing"
	FulfillmentReady     FulfillmentStatus = "ready"
	FulfillmentServed    FulfillmentStatus = "served"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

// PaymentStatus описывает состояние оплаты; переход unpaid→paid единственный и необратимый.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// fulfillmentRank задаёт порядок этапов на прямом пути выполнения.
var fulfillmentRank = map[FulfillmentStatus]int{
	FulfillmentPending:   0,
	FulfillmentConfirmed: 1,
	FulfillmentPreparing: 2,
	FulfillmentReady:     3,
	FulfillmentServed:    4,
}

// IsTerminal сообщает, закрыт ли этап выполнения (served/cancelled).
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentServed || s == FulfillmentCancelled
}

// IsValidFulfillment проверяет, что статус входит в известный набор.
func IsValidFulfillment(s FulfillmentStatus) bool {
	if s == FulfillmentCancelled {
		return true
	}
	_, ok := fulfillmentRank[s]
	return ok
}

// CanTransition проверяет допустимость перехода выполнения.
// Прямой путь pending→confirmed→preparing→ready→served допускает пропуск
// промежуточных этапов; cancelled достижим из любого нетерминального состояния.
func CanTransition(from, to FulfillmentStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == FulfillmentCancelled {
		return true
	}
	fromRank, okFrom := fulfillmentRank[from]
	toRank, okTo := fulfillmentRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// OrderItem — позиция заказа. Название и цена копируются из продукта в момент
// создания заказа и больше не пересчитываются.
type OrderItem struct {
	ProductID string
	// Name — снимок названия продукта на момент заказа.
	Name string
	// Quantity — количество, всегда >= 1.
	Quantity int32
	// UnitPriceMinor — снимок цены за единицу в минимальных денежных единицах.
	UnitPriceMinor int64
}

// LineTotalMinor возвращает стоимость позиции (quantity * unit price).
func (i OrderItem) LineTotalMinor() int64 {
	return int64(i.Quantity) * i.UnitPriceMinor
}

// Order агрегирует заказ за столом. Позиции и сумма неизменяемы после создания;
// меняются только статусы и их отметки времени.
type Order struct {
	ID        string
	TableID   string
	CreatedBy string
	Items     []OrderItem
	// TotalMinor — сумма позиций, вычисляется один раз при создании.
	TotalMinor int64
	GuestCount int

	// Легаси-статус, производный от Fulfillment/Payment.
	Status      OrderStatus
	Fulfillment FulfillmentStatus
	Payment     PaymentStatus

	// Отметки этапов выполнения; каждая ставится не более одного раза.
	ConfirmedAt *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	ServedAt    *time.Time
	PaidAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalFromItems вычисляет сумму заказа как сумму построчных итогов.
// Построчный итог считается первым, чтобы результат не зависел от порядка позиций.
func TotalFromItems(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalMinor()
	}
	return total
}

// SyncLegacyStatus выводит легаси-статус из пары Fulfillment/Payment.
// Порядок ветвлений фиксирует приоритет: отмена > оплата > подача.
func (o *Order) SyncLegacyStatus() {
	switch {
	case o.Fulfillment == FulfillmentCancelled:
		o.Status = OrderStatusCancelled
	case o.Payment == PaymentPaid:
		o.Status = OrderStatusPaid
	case o.Fulfillment == FulfillmentServed:
		o.Status = OrderStatusServed
	default:
		o.Status = OrderStatusPending
	}
}

// MilestoneStamp ставит отметку времени для целевого этапа выполнения.
// Уже установленная отметка не перезаписывается.
func (o *Order) MilestoneStamp(target FulfillmentStatus, now time.Time) {
	switch target {
	case FulfillmentConfirmed:
		if o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case FulfillmentPreparing:
		if o.PreparingAt == nil {
			o.PreparingAt = &now
		}
	case FulfillmentReady:
		if o.ReadyAt == nil {
			o.ReadyAt = &now
		}
	case FulfillmentServed:
		if o.ServedAt == nil {
			o.ServedAt = &now
		}
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.TableID == "" {
		errs = append(errs, ErrTableIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.GuestCount < 1 {
		errs = append(errs, ErrGuestCountInvalid)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}
	if TotalFromItems(o.Items) != o.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
