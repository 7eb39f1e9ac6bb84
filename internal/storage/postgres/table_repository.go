package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

const opTimeout = 5 * time.Second

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository создаёт PostgreSQL-реализацию TableRepository.
func NewTableRepository(store *Store) domain.TableRepository {
	return &tableRepository{db: store.DB()}
}

const tableColumns = `
	id, table_number, capacity, status, current_order_id,
	note, reserved_by, reserved_at, version, created_at, updated_at`

func (r *tableRepository) Create(table domain.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cafe_tables (
			id, table_number, capacity, status, current_order_id,
			note, reserved_by, reserved_at, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		table.ID, table.TableNumber, table.Capacity, string(table.Status),
		table.CurrentOrderID, table.Note, table.ReservedBy, table.ReservedAt,
		table.Version, table.CreatedAt, table.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTableNumberTaken
		}
		return fmt.Errorf("insert table: %w", err)
	}
	return nil
}

func (r *tableRepository) Get(id string) (domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+tableColumns+`
		FROM cafe_tables
		WHERE id = $1
	`, id)

	table, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Table{}, domain.ErrTableNotFound
		}
		return domain.Table{}, fmt.Errorf("select table: %w", err)
	}
	return table, nil
}

func (r *tableRepository) List() ([]domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tableColumns+`
		FROM cafe_tables
		ORDER BY table_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return tables, nil
}

// Save выполняет conditional update по версии: при расхождении возвращается
// ErrTableVersionConflict, повторять запись решает вызывающий.
func (r *tableRepository) Save(table domain.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE cafe_tables
		SET status = $1,
		    current_order_id = $2,
		    note = $3,
		    reserved_by = $4,
		    reserved_at = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE id = $7
		  AND version = $8
	`,
		string(table.Status), table.CurrentOrderID, table.Note,
		table.ReservedBy, table.ReservedAt, table.UpdatedAt,
		table.ID, table.Version,
	)
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.tableExists(ctx, table.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrTableNotFound
		}
		return domain.ErrTableVersionConflict
	}
	return nil
}

// Release безусловно возвращает стол в available, минуя проверку версии:
// это административный выход из потерянного состояния.
func (r *tableRepository) Release(id string, now time.Time) (domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		UPDATE cafe_tables
		SET status = $1,
		    current_order_id = '',
		    reserved_by = '',
		    reserved_at = NULL,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		RETURNING `+tableColumns+`
	`, string(domain.TableAvailable), now, id)

	table, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Table{}, domain.ErrTableNotFound
		}
		return domain.Table{}, fmt.Errorf("release table: %w", err)
	}
	return table, nil
}

func (r *tableRepository) tableExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM cafe_tables WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check table exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTable(row rowScanner) (domain.Table, error) {
	var (
		table      domain.Table
		status     string
		reservedAt sql.NullTime
	)
	if err := row.Scan(
		&table.ID, &table.TableNumber, &table.Capacity, &status,
		&table.CurrentOrderID, &table.Note, &table.ReservedBy, &reservedAt,
		&table.Version, &table.CreatedAt, &table.UpdatedAt,
	); err != nil {
		return domain.Table{}, err
	}
	table.Status = domain.TableStatus(status)
	if reservedAt.Valid {
		ts := reservedAt.Time
		table.ReservedAt = &ts
	}
	return table, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.TableRepository = (*tableRepository)(nil)
