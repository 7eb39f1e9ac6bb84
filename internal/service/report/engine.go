package report

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// Summary — агрегат выручки по оплаченным заказам за окно времени.
type Summary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	TotalRevenueMinor int64     `json:"total_revenue_minor"`
	OrdersCount       int       `json:"orders_count"`
	Guests            int       `json:"guests"`
}

// ProductStat — строка отчёта top-products.
type ProductStat struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Quantity     int64  `json:"quantity"`
	RevenueMinor int64  `json:"revenue_minor"`
}

// Engine строит отчёты по оплаченным заказам. Дни считаются календарными
// в зоне запроса: окно дня — [start_of_day(d), start_of_day(d+1)) в zone,
// а не полночь UTC.
type Engine struct {
	orders      domain.OrderRepository
	defaultZone *time.Location
	cache       *Cache
	logger      *log.Entry
}

// New создаёт движок отчётов. defaultZone применяется, когда зона не задана
// в запросе; нулевая трактуется как UTC. Cache опционален.
func New(orders domain.OrderRepository, defaultZone *time.Location, cache *Cache, logger *log.Entry) *Engine {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	if logger == nil {
		logger = log.New().WithField("component", "report")
	}
	return &Engine{orders: orders, defaultZone: defaultZone, cache: cache, logger: logger}
}

func (e *Engine) zoneOrDefault(zone *time.Location) *time.Location {
	if zone == nil {
		return e.defaultZone
	}
	return zone
}

// dayStart возвращает начало календарного дня t в зоне zone.
func dayStart(t time.Time, zone *time.Location) time.Time {
	local := t.In(zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
}

// window переводит inclusive-диапазон дат в полуоткрытое окно
// [start_of_day(start), start_of_day(end+1)).
func window(start, end time.Time, zone *time.Location) (time.Time, time.Time) {
	return dayStart(start, zone), dayStart(end, zone).AddDate(0, 0, 1)
}

// Daily возвращает сводку за один календарный день. Нулевая zone означает
// зону движка по умолчанию.
func (e *Engine) Daily(day time.Time, zone *time.Location) (Summary, error) {
	return e.Range(day, day, zone)
}

// Range возвращает сводку за inclusive-диапазон дней. Range(d, d, zone)
// эквивалентен Daily(d, zone).
func (e *Engine) Range(start, end time.Time, zone *time.Location) (Summary, error) {
	from, to := window(start, end, e.zoneOrDefault(zone))

	if cached, ok := e.cache.GetSummary(from, to); ok {
		return cached, nil
	}

	orders, err := e.orders.ListPaidCreatedBetween(from, to)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{From: from, To: to}
	for _, order := range orders {
		summary.TotalRevenueMinor += order.TotalMinor
		summary.OrdersCount++
		summary.Guests += order.GuestCount
	}

	e.cache.PutSummary(from, to, summary)
	return summary, nil
}

// TopProducts возвращает продукты диапазона, отсортированные по количеству,
// затем по выручке, затем по идентификатору. limit <= 0 трактуется как 10.
func (e *Engine) TopProducts(start, end time.Time, zone *time.Location, limit int) ([]ProductStat, error) {
	if limit <= 0 {
		limit = 10
	}
	from, to := window(start, end, e.zoneOrDefault(zone))

	orders, err := e.orders.ListPaidCreatedBetween(from, to)
	if err != nil {
		return nil, err
	}

	// Группировка по паре (product_id, name-снимок): переименованный продукт
	// образует отдельную строку, исторические снимки не сливаются.
	type productKey struct {
		id   string
		name string
	}
	byProduct := make(map[productKey]*ProductStat)
	for _, order := range orders {
		for _, item := range order.Items {
			key := productKey{id: item.ProductID, name: item.Name}
			stat, ok := byProduct[key]
			if !ok {
				stat = &ProductStat{ProductID: item.ProductID, Name: item.Name}
				byProduct[key] = stat
			}
			stat.Quantity += int64(item.Quantity)
			stat.RevenueMinor += item.LineTotalMinor()
		}
	}

	result := make([]ProductStat, 0, len(byProduct))
	for _, stat := range byProduct {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		if result[i].RevenueMinor != result[j].RevenueMinor {
			return result[i].RevenueMinor > result[j].RevenueMinor
		}
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return result[i].Name < result[j].Name
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// BackfillPaidAt проставляет paid_at оплаченным заказам, у которых отметка
// отсутствует: берётся updated_at, иначе created_at, иначе текущее время.
// Повторный запуск ничего не меняет. Возвращает число обновлённых заказов.
func (e *Engine) BackfillPaidAt() (int, error) {
	orders, err := e.orders.ListPaidMissingPaidAt()
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, order := range orders {
		ts := order.UpdatedAt
		if ts.IsZero() {
			ts = order.CreatedAt
		}
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		stamp := ts
		order.PaidAt = &stamp
		if err := e.orders.Update(order); err != nil {
			return updated, err
		}
		updated++
	}

	if updated > 0 {
		e.logger.WithField("updated", updated).Info("paid_at backfill applied")
	}
	return updated, nil
}
