package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// ProductRepository хранит каталог продуктов в PostgreSQL и реализует
// domain.ProductProvider для снимков цен.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{db: store.DB()}
}

// Put вставляет или перезаписывает продукт; пустой ID генерируется.
func (r *ProductRepository) Put(product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price_minor, available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price_minor = EXCLUDED.price_minor,
		    available = EXCLUDED.available,
		    updated_at = EXCLUDED.updated_at
	`,
		product.ID, product.Name, product.Description, product.PriceMinor,
		product.Available, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return product, nil
}

// Snapshot возвращает текущее состояние продукта для снимка в заказ.
func (r *ProductRepository) Snapshot(productID string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_minor, available, created_at, updated_at
		FROM products
		WHERE id = $1
	`, productID).Scan(
		&product.ID, &product.Name, &product.Description, &product.PriceMinor,
		&product.Available, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// List возвращает каталог, отсортированный по имени.
func (r *ProductRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price_minor, available, created_at, updated_at
		FROM products
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.PriceMinor,
			&product.Available, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

var _ domain.ProductProvider = (*ProductRepository)(nil)
