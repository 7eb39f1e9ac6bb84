package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/coordinator"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/report"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/tables"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/memory"
)

func newTestServer(t *testing.T) (http.Handler, *memory.ProductCatalog) {
	t.Helper()
	tablesRepo := memory.NewTableRepository()
	ordersRepo := memory.NewOrderRepository()
	products := memory.NewProductCatalog()

	orders := coordinator.NewWithoutMetrics(ordersRepo, tablesRepo, products, memory.NewOutboxRepository(), nil)
	tablesSvc := tables.New(tablesRepo, nil, nil)
	reports := report.New(ordersRepo, time.UTC, nil, nil)

	handler := NewHandler(orders, tablesSvc, reports, products, nil)
	return NewRouter(handler), products
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	// Reset the destination so fields omitted from the response (omitempty)
	// do not retain values from a previous decode into the same struct.
	v := reflect.ValueOf(dst).Elem()
	v.Set(reflect.Zero(v.Type()))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func createTestTable(t *testing.T, router http.Handler, number, capacity int) string {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/tables", map[string]int{
		"table_number": number,
		"capacity":     capacity,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var table struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &table)
	return table.ID
}

func createTestProduct(t *testing.T, router http.Handler, name, price string) string {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/products", map[string]string{
		"name":  name,
		"price": price,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var product struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &product)
	return product.ID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router, _ := newTestServer(t)
	tableID := createTestTable(t, router, 1, 4)
	productID := createTestProduct(t, router, "Espresso", "2.50")

	rec := doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 2,
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": 2},
		},
	}, map[string]string{"X-User-ID": "waiter-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		ID      string `json:"id"`
		Total   string `json:"total"`
		Status  string `json:"status"`
		Payment string `json:"payment"`
	}
	decodeBody(t, rec, &order)
	require.Equal(t, "5.00", order.Total)
	require.Equal(t, "pending", order.Status)

	// Стол занят созданным заказом.
	rec = doJSON(t, router, "GET", "/api/tables/"+tableID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var table struct {
		Status         string `json:"status"`
		CurrentOrderID string `json:"current_order_id"`
	}
	decodeBody(t, rec, &table)
	require.Equal(t, "occupied", table.Status)
	require.Equal(t, order.ID, table.CurrentOrderID)

	// Движение по этапам выполнения.
	for _, status := range []string{"confirmed", "preparing", "ready", "served"} {
		rec = doJSON(t, router, "POST", "/api/orders/"+order.ID+"/status",
			map[string]string{"status": status}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// Оплата освобождает стол.
	rec = doJSON(t, router, "POST", "/api/orders/"+order.ID+"/pay", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid struct {
		Status  string `json:"status"`
		Payment string `json:"payment"`
		PaidAt  string `json:"paid_at"`
	}
	decodeBody(t, rec, &paid)
	require.Equal(t, "paid", paid.Status)
	require.Equal(t, "paid", paid.Payment)
	require.NotEmpty(t, paid.PaidAt)

	rec = doJSON(t, router, "GET", "/api/tables/"+tableID, nil, nil)
	decodeBody(t, rec, &table)
	require.Equal(t, "available", table.Status)
	require.Empty(t, table.CurrentOrderID)

	// Повторная оплата — конфликт предусловия.
	rec = doJSON(t, router, "POST", "/api/orders/"+order.ID+"/pay", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_ErrorStatuses(t *testing.T) {
	router, _ := newTestServer(t)
	tableID := createTestTable(t, router, 1, 2)
	productID := createTestProduct(t, router, "Latte", "3.00")

	// Несуществующий стол.
	rec := doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    "missing",
		"guest_count": 1,
		"items":       []map[string]interface{}{{"product_id": productID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Число гостей больше вместимости.
	rec = doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 5,
		"items":       []map[string]interface{}{{"product_id": productID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Занятый стол — второй заказ отклоняется.
	rec = doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 1,
		"items":       []map[string]interface{}{{"product_id": productID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 1,
		"items":       []map[string]interface{}{{"product_id": productID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTableEndpoints(t *testing.T) {
	router, _ := newTestServer(t)
	tableID := createTestTable(t, router, 7, 4)

	// Дубликат номера — конфликт.
	rec := doJSON(t, router, "POST", "/api/tables", map[string]int{
		"table_number": 7,
		"capacity":     2,
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Бронь требует идентификацию.
	rec = doJSON(t, router, "POST", "/api/tables/"+tableID+"/reserve", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/api/tables/"+tableID+"/reserve",
		map[string]interface{}{"note": "birthday", "guest_count": 3},
		map[string]string{"X-User-ID": "guest-9"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var table struct {
		Status     string `json:"status"`
		ReservedBy string `json:"reserved_by"`
		Note       string `json:"note"`
	}
	decodeBody(t, rec, &table)
	require.Equal(t, "reserved", table.Status)
	require.Equal(t, "guest-9", table.ReservedBy)
	require.Equal(t, "birthday", table.Note)

	// Мои брони.
	rec = doJSON(t, router, "GET", "/api/tables/my", nil, map[string]string{"X-User-ID": "guest-9"})
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []tableView
	decodeBody(t, rec, &mine)
	require.Len(t, mine, 1)

	// Административный release возвращает стол в available.
	rec = doJSON(t, router, "POST", "/api/tables/"+tableID+"/release", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &table)
	require.Equal(t, "available", table.Status)
	require.Empty(t, table.ReservedBy)
}

func TestReportEndpoints(t *testing.T) {
	router, products := newTestServer(t)
	tableID := createTestTable(t, router, 1, 4)
	_, err := products.Put(domain.Product{ID: "p-espresso", Name: "Espresso", PriceMinor: 250, Available: true})
	require.NoError(t, err)

	// Создать и оплатить заказ сегодня.
	rec := doJSON(t, router, "POST", "/api/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 2,
		"items":       []map[string]interface{}{{"product_id": "p-espresso", "quantity": 4}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &order)

	rec = doJSON(t, router, "POST", "/api/orders/"+order.ID+"/pay", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	today := time.Now().UTC().Format("2006-01-02")

	rec = doJSON(t, router, "GET", "/api/reports/daily?date="+today, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		TotalRevenue string `json:"total_revenue"`
		OrdersCount  int    `json:"orders_count"`
		Guests       int    `json:"guests"`
	}
	decodeBody(t, rec, &summary)
	require.Equal(t, "10.00", summary.TotalRevenue)
	require.Equal(t, 1, summary.OrdersCount)
	require.Equal(t, 2, summary.Guests)

	rec = doJSON(t, router, "GET", fmt.Sprintf("/api/reports/top-products?start=%s&end=%s", today, today), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top []productStatView
	decodeBody(t, rec, &top)
	require.Len(t, top, 1)
	require.Equal(t, "p-espresso", top[0].ProductID)
	require.Equal(t, int64(4), top[0].Quantity)

	// Явная зона принимается по имени IANA.
	rec = doJSON(t, router, "GET", "/api/reports/daily?date="+today+"&zone=UTC", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Невалидные параметры дат и зоны.
	rec = doJSON(t, router, "GET", "/api/reports/daily", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, "GET", "/api/reports/range?start="+today+"&end=busted", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, "GET", "/api/reports/daily?date="+today+"&zone=Mars%2FOlympus", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/api/reports/backfill-paid-at", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var backfill struct {
		Updated int `json:"updated"`
	}
	decodeBody(t, rec, &backfill)
	require.Equal(t, 0, backfill.Updated)
}

func TestProductValidation(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/products", map[string]string{"price": "2.50"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/api/products", map[string]string{"name": "Tea", "price": "abc"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/api/products", map[string]string{"name": "Tea", "price": "1.8"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var product productView
	decodeBody(t, rec, &product)
	require.Equal(t, "1.80", product.Price)
	require.True(t, product.Available)
}
