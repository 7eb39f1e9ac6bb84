package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/coordinator"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/report"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/tables"
)

const userIDHeader = "X-User-ID"

// ProductStore — каталог продуктов, доступный через API.
type ProductStore interface {
	Put(product domain.Product) (domain.Product, error)
	List() ([]domain.Product, error)
}

// Handler — HTTP-граница сервиса: валидация запросов, маппинг ошибок
// на статусы и сериализация ответов. Бизнес-правила живут в сервисах.
type Handler struct {
	orders   *coordinator.Coordinator
	tables   *tables.Service
	reports  *report.Engine
	products ProductStore
	logger   *log.Entry
}

// NewHandler создаёт HTTP handler над сервисами.
func NewHandler(
	orders *coordinator.Coordinator,
	tablesSvc *tables.Service,
	reports *report.Engine,
	products ProductStore,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	return &Handler{
		orders:   orders,
		tables:   tablesSvc,
		reports:  reports,
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders", h.listOrders).Methods("GET")
	r.HandleFunc("/api/orders/my", h.listMyOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.transitionOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}/pay", h.payOrder).Methods("POST")

	r.HandleFunc("/api/tables", h.createTable).Methods("POST")
	r.HandleFunc("/api/tables", h.listTables).Methods("GET")
	r.HandleFunc("/api/tables/my", h.listMyTables).Methods("GET")
	r.HandleFunc("/api/tables/{id}", h.getTable).Methods("GET")
	r.HandleFunc("/api/tables/{id}/orders", h.tableOrders).Methods("GET")
	r.HandleFunc("/api/tables/{id}/reserve", h.reserveTable).Methods("POST")
	r.HandleFunc("/api/tables/{id}/release", h.releaseTable).Methods("POST")
	r.HandleFunc("/api/tables/{id}/status", h.updateTableStatus).Methods("PUT")

	r.HandleFunc("/api/products", h.createProduct).Methods("POST")
	r.HandleFunc("/api/products", h.listProducts).Methods("GET")

	r.HandleFunc("/api/reports/daily", h.dailyReport).Methods("GET")
	r.HandleFunc("/api/reports/range", h.rangeReport).Methods("GET")
	r.HandleFunc("/api/reports/top-products", h.topProducts).Methods("GET")
	r.HandleFunc("/api/reports/backfill-paid-at", h.backfillPaidAt).Methods("POST")
}

// --- заказы ---

type createOrderRequest struct {
	TableID    string `json:"table_id"`
	GuestCount int    `json:"guest_count"`
	Items      []struct {
		ProductID string `json:"product_id"`
		Quantity  int32  `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.TableID == "" {
		h.writeError(w, http.StatusBadRequest, "table_id is required")
		return
	}
	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	lines := make([]coordinator.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" {
			h.writeError(w, http.StatusBadRequest, "item product_id is required")
			return
		}
		if item.Quantity < 1 {
			h.writeError(w, http.StatusBadRequest, "item quantity must be positive")
			return
		}
		lines = append(lines, coordinator.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(coordinator.CreateOrderRequest{
		TableID:    req.TableID,
		GuestCount: req.GuestCount,
		Lines:      lines,
		CreatedBy:  r.Header.Get(userIDHeader),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toOrderView(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("open") == "true"
	orders, err := h.orders.ListOrders(onlyOpen)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderViews(orders))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	orders, err := h.orders.HistoryByUser(userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderViews(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(mux.Vars(r)["id"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderView(order))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Status == "" {
		h.writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	order, err := h.orders.Transition(mux.Vars(r)["id"], domain.FulfillmentStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderView(order))
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.MarkPaid(mux.Vars(r)["id"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderView(order))
}

// --- столы ---

type createTableRequest struct {
	TableNumber int `json:"table_number"`
	Capacity    int `json:"capacity"`
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	table, err := h.tables.Create(req.TableNumber, req.Capacity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTableView(table))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	all, err := h.tables.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableViews(all))
}

func (h *Handler) listMyTables(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	mine, err := h.tables.ListReservedBy(userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableViews(mine))
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.tables.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableView(table))
}

func (h *Handler) tableOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.HistoryByTable(mux.Vars(r)["id"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderViews(orders))
}

type reserveTableRequest struct {
	Note       string `json:"note"`
	GuestCount int    `json:"guest_count"`
}

func (h *Handler) reserveTable(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	var req reserveTableRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	table, err := h.tables.Reserve(mux.Vars(r)["id"], userID, req.Note, req.GuestCount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableView(table))
}

func (h *Handler) releaseTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.tables.Release(mux.Vars(r)["id"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableView(table))
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateTableStatus(w http.ResponseWriter, r *http.Request) {
	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	table, err := h.tables.UpdateStatus(mux.Vars(r)["id"], domain.TableStatus(req.Status), r.Header.Get(userIDHeader))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableView(table))
}

// --- продукты ---

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Available   *bool  `json:"available"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	priceMinor, err := domain.ParseAmountMinor(req.Price)
	if err != nil || priceMinor < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	now := time.Now().UTC()
	product, err := h.products.Put(domain.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  priceMinor,
		Available:   available,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toProductView(product))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, product := range products {
		views = append(views, toProductView(product))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// --- отчёты ---

const dateLayout = "2006-01-02"

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	zone, ok := h.parseZone(w, r.URL.Query().Get("zone"))
	if !ok {
		return
	}
	summary, err := h.reports.Daily(day, zone)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSummaryView(summary))
}

func (h *Handler) rangeReport(w http.ResponseWriter, r *http.Request) {
	start, ok := h.parseDate(w, r.URL.Query().Get("start"))
	if !ok {
		return
	}
	end, ok := h.parseDate(w, r.URL.Query().Get("end"))
	if !ok {
		return
	}
	if end.Before(start) {
		h.writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}
	zone, ok := h.parseZone(w, r.URL.Query().Get("zone"))
	if !ok {
		return
	}
	summary, err := h.reports.Range(start, end, zone)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSummaryView(summary))
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	start, ok := h.parseDate(w, r.URL.Query().Get("start"))
	if !ok {
		return
	}
	end, ok := h.parseDate(w, r.URL.Query().Get("end"))
	if !ok {
		return
	}
	if end.Before(start) {
		h.writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	zone, ok := h.parseZone(w, r.URL.Query().Get("zone"))
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	stats, err := h.reports.TopProducts(start, end, zone, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProductStatViews(stats))
}

func (h *Handler) backfillPaidAt(w http.ResponseWriter, r *http.Request) {
	updated, err := h.reports.BackfillPaidAt()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "date parameter is required")
		return time.Time{}, false
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// parseZone разбирает именованную time zone из запроса. Пустая строка
// означает зону отчётов по умолчанию (nil для движка).
func (h *Handler) parseZone(w http.ResponseWriter, raw string) (*time.Location, bool) {
	if raw == "" {
		return nil, true
	}
	zone, err := time.LoadLocation(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid zone, expected IANA time zone name")
		return nil, false
	}
	return zone, true
}

// --- ответы и маппинг ошибок ---

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError переводит класс доменной ошибки в HTTP-статус:
// not-found — 404, конфликты — 409, нарушенные предусловия — 400.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case domain.IsVersionConflict(err),
		errors.Is(err, domain.ErrTableNumberTaken),
		errors.Is(err, domain.ErrOrderExists):
		h.writeError(w, http.StatusConflict, err.Error())
	case domain.IsPreconditionViolation(err),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrTableNumberInvalid),
		errors.Is(err, domain.ErrTableCapacityInvalid),
		errors.Is(err, domain.ErrTableStatusInvalid):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("internal error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
