package domain

import "time"

// Product — позиция меню. Координатор читает продукт только как снимок
// цены/доступности в момент создания заказа; блокировка не нужна, потому что
// цена копируется в позицию заказа, а не ссылается на продукт.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceMinor  int64
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
