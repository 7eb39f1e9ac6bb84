package domain

import "time"

// TableRepository описывает требования к хранилищу столов.
type TableRepository interface {
	// Create сохраняет новый стол. Возвращает ErrTableNumberTaken, если номер занят.
	Create(table Table) error
	// Get возвращает стол по идентификатору или ErrTableNotFound.
	Get(id string) (Table, error)
	// List возвращает все столы, отсортированные по номеру.
	List() ([]Table, error)
	// Save применяет обновление с учётом optimistic locking: запись
	// перезаписывается атомарно только при совпадении версии, иначе
	// возвращается ErrTableVersionConflict.
	Save(table Table) error
	// Release безусловно возвращает стол в available, очищая бронь и ссылку
	// на заказ. Административный override, версия инкрементируется.
	Release(id string, now time.Time) (Table, error)
}

// OrderRepository описывает требования к хранилищу заказов.
// Заказы не версионируются: статус двигается только вперёд, и гонка
// конкурентных переходов на одном заказе принята как last-write-wins.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderExists, если ID занят.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// Update перезаписывает изменяемые поля заказа (статусы и отметки).
	Update(order Order) error
	// List возвращает заказы свежие-первые; onlyOpen ограничивает выборку
	// неоплаченными заказами.
	List(onlyOpen bool) ([]Order, error)
	// ListByTable возвращает историю заказов стола, свежие-первые.
	ListByTable(tableID string) ([]Order, error)
	// ListByUser возвращает историю заказов пользователя, свежие-первые.
	ListByUser(userID string) ([]Order, error)
	// ListPaidCreatedBetween возвращает оплаченные заказы, созданные в
	// полуоткрытом интервале [start, end).
	ListPaidCreatedBetween(start, end time.Time) ([]Order, error)
	// ListPaidMissingPaidAt возвращает оплаченные заказы без отметки paid_at
	// (наследие старой модели данных).
	ListPaidMissingPaidAt() ([]Order, error)
}
