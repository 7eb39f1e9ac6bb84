package report

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/memory"
)

func paidOrder(t *testing.T, repo domain.OrderRepository, id string, createdAt time.Time, guests int, items []domain.OrderItem) {
	t.Helper()
	paidAt := createdAt.Add(30 * time.Minute)
	order := domain.Order{
		ID:          id,
		TableID:     "table-1",
		Items:       items,
		TotalMinor:  domain.TotalFromItems(items),
		GuestCount:  guests,
		Status:      domain.OrderStatusPaid,
		Fulfillment: domain.FulfillmentServed,
		Payment:     domain.PaymentPaid,
		PaidAt:      &paidAt,
		CreatedAt:   createdAt,
		UpdatedAt:   paidAt,
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func item(productID, name string, qty int32, priceMinor int64) domain.OrderItem {
	return domain.OrderItem{ProductID: productID, Name: name, Quantity: qty, UnitPriceMinor: priceMinor}
}

func TestDaily_ZoneAwareWindow(t *testing.T) {
	repo := memory.NewOrderRepository()
	zone := time.FixedZone("UTC+5", 5*3600)
	e := New(repo, time.UTC, nil, nil)

	// 2025-03-09 23:30 UTC — это уже 2025-03-10 04:30 в UTC+5.
	late := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	paidOrder(t, repo, "o1", late, 2, []domain.OrderItem{item("p1", "Espresso", 1, 250)})

	// В UTC-представлении день 2025-03-09, в зоне запроса — уже 10-е.
	day9, err := e.Daily(time.Date(2025, 3, 9, 12, 0, 0, 0, zone), zone)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if day9.OrdersCount != 0 {
		t.Errorf("order leaked into wrong local day: %+v", day9)
	}

	day10, err := e.Daily(time.Date(2025, 3, 10, 12, 0, 0, 0, zone), zone)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if day10.OrdersCount != 1 || day10.TotalRevenueMinor != 250 || day10.Guests != 2 {
		t.Errorf("unexpected summary: %+v", day10)
	}

	// Без зоны в запросе действует зона движка по умолчанию (UTC):
	// там заказ ещё относится к 9 марта.
	utcDay9, err := e.Daily(time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if utcDay9.OrdersCount != 1 {
		t.Errorf("default zone not applied: %+v", utcDay9)
	}
}

func TestRange_SingleDayEqualsDaily(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidOrder(t, repo, "o1", day.Add(10*time.Hour), 3, []domain.OrderItem{item("p1", "Latte", 2, 300)})
	// Заказ ровно в начале следующего дня в окно не входит.
	paidOrder(t, repo, "o2", day.AddDate(0, 0, 1), 1, []domain.OrderItem{item("p1", "Latte", 1, 300)})

	daily, err := e.Daily(day, nil)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	ranged, err := e.Range(day, day, nil)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if daily != ranged {
		t.Errorf("Range(d,d) != Daily(d): %+v vs %+v", ranged, daily)
	}
	if daily.OrdersCount != 1 || daily.TotalRevenueMinor != 600 {
		t.Errorf("boundary order leaked in: %+v", daily)
	}
}

func TestRange_UnpaidExcluded(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidOrder(t, repo, "paid", day.Add(time.Hour), 2, []domain.OrderItem{item("p1", "Latte", 1, 300)})
	unpaid := domain.Order{
		ID:          "unpaid",
		TableID:     "table-1",
		Items:       []domain.OrderItem{item("p1", "Latte", 5, 300)},
		TotalMinor:  1500,
		GuestCount:  4,
		Status:      domain.OrderStatusServed,
		Fulfillment: domain.FulfillmentServed,
		Payment:     domain.PaymentUnpaid,
		CreatedAt:   day.Add(2 * time.Hour),
		UpdatedAt:   day.Add(2 * time.Hour),
	}
	if err := repo.Create(unpaid); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	summary, err := e.Range(day, day, nil)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if summary.OrdersCount != 1 || summary.TotalRevenueMinor != 300 || summary.Guests != 2 {
		t.Errorf("unpaid order counted: %+v", summary)
	}
}

func TestRange_PaidThenCancelledExcluded(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidOrder(t, repo, "paid", day.Add(time.Hour), 2, []domain.OrderItem{item("p1", "Latte", 1, 300)})

	// Оплачен, но затем отменён: в легаси-статусе отмена выигрывает,
	// в выручку такой заказ не входит.
	paidAt := day.Add(2 * time.Hour)
	refunded := domain.Order{
		ID:          "refunded",
		TableID:     "table-1",
		Items:       []domain.OrderItem{item("p1", "Latte", 1, 300)},
		TotalMinor:  300,
		GuestCount:  1,
		Status:      domain.OrderStatusCancelled,
		Fulfillment: domain.FulfillmentCancelled,
		Payment:     domain.PaymentPaid,
		PaidAt:      &paidAt,
		CreatedAt:   day.Add(2 * time.Hour),
		UpdatedAt:   day.Add(3 * time.Hour),
	}
	if err := repo.Create(refunded); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	summary, err := e.Range(day, day, nil)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if summary.OrdersCount != 1 || summary.TotalRevenueMinor != 300 || summary.Guests != 2 {
		t.Errorf("cancelled order counted as revenue: %+v", summary)
	}
}

func TestTopProducts_OrderingAndLimit(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidOrder(t, repo, "o1", day.Add(time.Hour), 2, []domain.OrderItem{
		item("p-espresso", "Espresso", 3, 250),
		item("p-cake", "Cheesecake", 3, 520),
	})
	paidOrder(t, repo, "o2", day.Add(2*time.Hour), 1, []domain.OrderItem{
		item("p-espresso", "Espresso", 2, 250),
		item("p-tea", "Tea", 1, 180),
	})

	top, err := e.TopProducts(day, day, nil, 0)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 products, got %d", len(top))
	}
	// Espresso: qty 5. Cheesecake: qty 3, выручка 1560. Tea: qty 1.
	if top[0].ProductID != "p-espresso" || top[0].Quantity != 5 || top[0].RevenueMinor != 1250 {
		t.Errorf("unexpected first row: %+v", top[0])
	}
	if top[1].ProductID != "p-cake" || top[2].ProductID != "p-tea" {
		t.Errorf("unexpected tail order: %+v", top)
	}

	limited, err := e.TopProducts(day, day, nil, 1)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ProductID != "p-espresso" {
		t.Errorf("limit not applied: %+v", limited)
	}
}

func TestTopProducts_RevenueThenIDTiebreak(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Одинаковое количество: решает выручка, затем product_id.
	paidOrder(t, repo, "o1", day.Add(time.Hour), 1, []domain.OrderItem{
		item("p-b", "Cheap", 2, 100),
		item("p-a", "Pricey", 2, 400),
		item("p-c", "Cheap Twin", 2, 100),
	})

	top, err := e.TopProducts(day, day, nil, 10)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if top[0].ProductID != "p-a" {
		t.Errorf("revenue tiebreak failed: %+v", top)
	}
	if top[1].ProductID != "p-b" || top[2].ProductID != "p-c" {
		t.Errorf("id tiebreak failed: %+v", top)
	}
}

func TestTopProducts_NameSnapshotsStaySeparate(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	// Продукт переименован между заказами: снимки названий различаются,
	// группировка идёт по паре (product_id, name), строки не сливаются.
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidOrder(t, repo, "o1", day.Add(time.Hour), 1, []domain.OrderItem{
		item("p1", "Espresso", 2, 250),
	})
	paidOrder(t, repo, "o2", day.Add(2*time.Hour), 1, []domain.OrderItem{
		item("p1", "Espresso Doppio", 3, 300),
	})

	top, err := e.TopProducts(day, day, nil, 0)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(top), top)
	}
	if top[0].Name != "Espresso Doppio" || top[0].Quantity != 3 || top[0].RevenueMinor != 900 {
		t.Errorf("unexpected first group: %+v", top[0])
	}
	if top[1].Name != "Espresso" || top[1].Quantity != 2 || top[1].RevenueMinor != 500 {
		t.Errorf("unexpected second group: %+v", top[1])
	}
}

func TestBackfillPaidAt_Idempotent(t *testing.T) {
	repo := memory.NewOrderRepository()
	e := New(repo, time.UTC, nil, nil)

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	legacy := domain.Order{
		ID:          "legacy",
		TableID:     "table-1",
		Items:       []domain.OrderItem{item("p1", "Latte", 1, 300)},
		TotalMinor:  300,
		GuestCount:  1,
		Status:      domain.OrderStatusPaid,
		Fulfillment: domain.FulfillmentServed,
		Payment:     domain.PaymentPaid,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
	if err := repo.Create(legacy); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	paidOrder(t, repo, "with-stamp", created, 1, []domain.OrderItem{item("p1", "Latte", 1, 300)})

	n, err := e.BackfillPaidAt()
	if err != nil {
		t.Fatalf("BackfillPaidAt failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 backfilled order, got %d", n)
	}

	got, err := repo.Get("legacy")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(updated) {
		t.Errorf("paid_at not taken from updated_at: %v", got.PaidAt)
	}

	// Повторный запуск ничего не находит.
	n, err = e.BackfillPaidAt()
	if err != nil {
		t.Fatalf("second BackfillPaidAt failed: %v", err)
	}
	if n != 0 {
		t.Errorf("backfill not idempotent: %d", n)
	}
}
