package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, table_id, created_by, total_minor, guest_count,
	status, fulfillment, payment,
	confirmed_at, preparing_at, ready_at, served_at, paid_at,
	created_at, updated_at`

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, table_id, created_by, total_minor, guest_count,
			status, fulfillment, payment,
			confirmed_at, preparing_at, ready_at, served_at, paid_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		order.ID, order.TableID, order.CreatedBy, order.TotalMinor, order.GuestCount,
		string(order.Status), string(order.Fulfillment), string(order.Payment),
		order.ConfirmedAt, order.PreparingAt, order.ReadyAt, order.ServedAt, order.PaidAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, line_no, product_id, name, qty, unit_price_minor
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			order.ID, i, item.ProductID, item.Name, item.Quantity, item.UnitPriceMinor,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// Update перезаписывает статусные поля заказа. Позиции и сумма после
// создания не трогаются, версии у заказа нет: статусы движутся только вперёд.
func (r *orderRepository) Update(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    fulfillment = $2,
		    payment = $3,
		    confirmed_at = $4,
		    preparing_at = $5,
		    ready_at = $6,
		    served_at = $7,
		    paid_at = $8,
		    updated_at = $9
		WHERE id = $10
	`,
		string(order.Status), string(order.Fulfillment), string(order.Payment),
		order.ConfirmedAt, order.PreparingAt, order.ReadyAt, order.ServedAt, order.PaidAt,
		order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) List(onlyOpen bool) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id DESC
	`
	if onlyOpen {
		query = `
			SELECT ` + orderColumns + `
			FROM orders
			WHERE payment <> 'paid'
			ORDER BY created_at DESC, id DESC
		`
	}
	return r.queryOrders(query)
}

func (r *orderRepository) ListByTable(tableID string) ([]domain.Order, error) {
	return r.queryOrders(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE table_id = $1
		ORDER BY created_at DESC, id DESC
	`, tableID)
}

func (r *orderRepository) ListByUser(userID string) ([]domain.Order, error) {
	return r.queryOrders(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

// ListPaidCreatedBetween возвращает оплаченные заказы из полуоткрытого
// окна [start, end) по времени создания. Отменённые исключаются: оплаченный
// и затем отменённый заказ выручкой не считается.
func (r *orderRepository) ListPaidCreatedBetween(start, end time.Time) ([]domain.Order, error) {
	return r.queryOrders(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment = 'paid'
		  AND fulfillment <> 'cancelled'
		  AND created_at >= $1
		  AND created_at < $2
		ORDER BY created_at DESC, id DESC
	`, start, end)
}

func (r *orderRepository) ListPaidMissingPaidAt() ([]domain.Order, error) {
	return r.queryOrders(`
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment = 'paid'
		  AND paid_at IS NULL
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *orderRepository) queryOrders(query string, args ...interface{}) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, qty, unit_price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.UnitPriceMinor); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order       domain.Order
		status      string
		fulfillment string
		payment     string
		confirmedAt sql.NullTime
		preparingAt sql.NullTime
		readyAt     sql.NullTime
		servedAt    sql.NullTime
		paidAt      sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.TableID, &order.CreatedBy, &order.TotalMinor, &order.GuestCount,
		&status, &fulfillment, &payment,
		&confirmedAt, &preparingAt, &readyAt, &servedAt, &paidAt,
		&order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.Fulfillment = domain.FulfillmentStatus(fulfillment)
	order.Payment = domain.PaymentStatus(payment)
	order.ConfirmedAt = nullTimePtr(confirmedAt)
	order.PreparingAt = nullTimePtr(preparingAt)
	order.ReadyAt = nullTimePtr(readyAt)
	order.ServedAt = nullTimePtr(servedAt)
	order.PaidAt = nullTimePtr(paidAt)
	return order, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}

var _ domain.OrderRepository = (*orderRepository)(nil)
