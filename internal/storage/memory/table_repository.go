package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// tableRepositoryInMemory — in-memory реализация TableRepository.
// Мьютекс делает compare-version-and-swap в Save атомарным на уровне записи.
type tableRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.Table
	numbers map[int]string
}

// NewTableRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewTableRepository() domain.TableRepository {
	return &tableRepositoryInMemory{
		items:   make(map[string]domain.Table),
		numbers: make(map[int]string),
	}
}

// Create сохраняет новый стол, если номер ещё не занят.
func (r *tableRepositoryInMemory) Create(table domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.numbers[table.TableNumber]; exists {
		return domain.ErrTableNumberTaken
	}
	if _, exists := r.items[table.ID]; exists {
		return domain.ErrTableNumberTaken
	}
	r.items[table.ID] = table
	r.numbers[table.TableNumber] = table.ID
	return nil
}

// Get возвращает стол или ErrTableNotFound.
func (r *tableRepositoryInMemory) Get(id string) (domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.items[id]
	if !ok {
		return domain.Table{}, domain.ErrTableNotFound
	}
	return table, nil
}

// List возвращает все столы, отсортированные по номеру.
func (r *tableRepositoryInMemory) List() ([]domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Table, 0, len(r.items))
	for _, table := range r.items {
		result = append(result, table)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TableNumber < result[j].TableNumber
	})
	return result, nil
}

// Save перезаписывает стол, проверяя версию (optimistic locking).
// Проверка и запись выполняются под одним мьютексом: это и есть атомарный
// check-and-set, который сериализует гонку двух резервирований.
func (r *tableRepositoryInMemory) Save(table domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[table.ID]
	if !ok {
		return domain.ErrTableNotFound
	}
	if current.Version != table.Version {
		return domain.ErrTableVersionConflict
	}
	table.Version++
	r.items[table.ID] = table
	return nil
}

// Release безусловно возвращает стол в available.
func (r *tableRepositoryInMemory) Release(id string, now time.Time) (domain.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.items[id]
	if !ok {
		return domain.Table{}, domain.ErrTableNotFound
	}
	table.MakeAvailable(now)
	table.Version++
	r.items[id] = table
	return table, nil
}

var _ domain.TableRepository = (*tableRepositoryInMemory)(nil)
