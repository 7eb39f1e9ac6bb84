package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderExists
	}
	// Сохраняем копию позиций, чтобы избежать мутаций извне.
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	r.items[order.ID] = order
	return nil
}

// Get возвращает заказ или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// Update перезаписывает заказ без проверки версии: статусы двигаются только
// вперёд, last-write-wins принят осознанно.
func (r *orderRepositoryInMemory) Update(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	// Позиции и сумма неизменяемы после создания.
	order.Items = current.Items
	order.TotalMinor = current.TotalMinor
	r.items[order.ID] = order
	return nil
}

// List возвращает заказы свежие-первые; onlyOpen — только неоплаченные.
func (r *orderRepositoryInMemory) List(onlyOpen bool) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool {
		return !onlyOpen || o.Payment != domain.PaymentPaid
	})
}

// ListByTable возвращает историю заказов стола.
func (r *orderRepositoryInMemory) ListByTable(tableID string) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool {
		return o.TableID == tableID
	})
}

// ListByUser возвращает историю заказов пользователя.
func (r *orderRepositoryInMemory) ListByUser(userID string) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool {
		return o.CreatedBy == userID
	})
}

// ListPaidCreatedBetween возвращает оплаченные заказы из [start, end).
// Оплаченный и затем отменённый заказ выручкой не считается: в легаси-статусе
// отмена выигрывает у оплаты.
func (r *orderRepositoryInMemory) ListPaidCreatedBetween(start, end time.Time) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool {
		if o.Payment != domain.PaymentPaid || o.Fulfillment == domain.FulfillmentCancelled {
			return false
		}
		return !o.CreatedAt.Before(start) && o.CreatedAt.Before(end)
	})
}

// ListPaidMissingPaidAt возвращает оплаченные заказы без отметки paid_at.
func (r *orderRepositoryInMemory) ListPaidMissingPaidAt() ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool {
		return o.Payment == domain.PaymentPaid && o.PaidAt == nil
	})
}

func (r *orderRepositoryInMemory) collect(match func(domain.Order) bool) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if match(order) {
			result = append(result, order)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
