package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/service/report"
)

// Денежные суммы на границе API — десятичные строки ("10.20"); внутри
// всё считается в минорных единицах.

type orderItemView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderView struct {
	ID          string          `json:"id"`
	TableID     string          `json:"table_id"`
	CreatedBy   string          `json:"created_by,omitempty"`
	GuestCount  int             `json:"guest_count"`
	Status      string          `json:"status"`
	Fulfillment string          `json:"fulfillment"`
	Payment     string          `json:"payment"`
	Total       string          `json:"total"`
	Items       []orderItemView `json:"items"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	PreparingAt *time.Time      `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time      `json:"ready_at,omitempty"`
	ServedAt    *time.Time      `json:"served_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toOrderView(order domain.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: domain.FormatAmountMinor(item.UnitPriceMinor),
			LineTotal: domain.FormatAmountMinor(item.LineTotalMinor()),
		})
	}
	return orderView{
		ID:          order.ID,
		TableID:     order.TableID,
		CreatedBy:   order.CreatedBy,
		GuestCount:  order.GuestCount,
		Status:      string(order.Status),
		Fulfillment: string(order.Fulfillment),
		Payment:     string(order.Payment),
		Total:       domain.FormatAmountMinor(order.TotalMinor),
		Items:       items,
		ConfirmedAt: order.ConfirmedAt,
		PreparingAt: order.PreparingAt,
		ReadyAt:     order.ReadyAt,
		ServedAt:    order.ServedAt,
		PaidAt:      order.PaidAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func toOrderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, toOrderView(order))
	}
	return views
}

type tableView struct {
	ID             string     `json:"id"`
	TableNumber    int        `json:"table_number"`
	Capacity       int        `json:"capacity"`
	Status         string     `json:"status"`
	CurrentOrderID string     `json:"current_order_id,omitempty"`
	Note           string     `json:"note,omitempty"`
	ReservedBy     string     `json:"reserved_by,omitempty"`
	ReservedAt     *time.Time `json:"reserved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toTableView(table domain.Table) tableView {
	return tableView{
		ID:             table.ID,
		TableNumber:    table.TableNumber,
		Capacity:       table.Capacity,
		Status:         string(table.Status),
		CurrentOrderID: table.CurrentOrderID,
		Note:           table.Note,
		ReservedBy:     table.ReservedBy,
		ReservedAt:     table.ReservedAt,
		CreatedAt:      table.CreatedAt,
		UpdatedAt:      table.UpdatedAt,
	}
}

func toTableViews(tables []domain.Table) []tableView {
	views := make([]tableView, 0, len(tables))
	for _, table := range tables {
		views = append(views, toTableView(table))
	}
	return views
}

type productView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Available   bool   `json:"available"`
}

func toProductView(product domain.Product) productView {
	return productView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       domain.FormatAmountMinor(product.PriceMinor),
		Available:   product.Available,
	}
}

type summaryView struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TotalRevenue string    `json:"total_revenue"`
	OrdersCount  int       `json:"orders_count"`
	Guests       int       `json:"guests"`
}

func toSummaryView(s report.Summary) summaryView {
	return summaryView{
		From:         s.From,
		To:           s.To,
		TotalRevenue: domain.FormatAmountMinor(s.TotalRevenueMinor),
		OrdersCount:  s.OrdersCount,
		Guests:       s.Guests,
	}
}

type productStatView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   string `json:"revenue"`
}

func toProductStatViews(stats []report.ProductStat) []productStatView {
	views := make([]productStatView, 0, len(stats))
	for _, stat := range stats {
		views = append(views, productStatView{
			ProductID: stat.ProductID,
			Name:      stat.Name,
			Quantity:  stat.Quantity,
			Revenue:   domain.FormatAmountMinor(stat.RevenueMinor),
		})
	}
	return views
}
