package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// ProductCatalog — in-memory каталог продуктов. Для координатора он играет
// роль ProductProvider: снимок цены/доступности в момент обращения.
type ProductCatalog struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductCatalog создаёт пустой каталог.
func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{items: make(map[string]domain.Product)}
}

// Put сохраняет продукт; пустой ID генерируется.
func (c *ProductCatalog) Put(product domain.Product) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	c.items[product.ID] = product
	return product, nil
}

// Snapshot возвращает снимок продукта или ErrProductNotFound.
func (c *ProductCatalog) Snapshot(productID string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает продукты, отсортированные по названию.
func (c *ProductCatalog) List() ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Product, 0, len(c.items))
	for _, product := range c.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

var _ domain.ProductProvider = (*ProductCatalog)(nil)
