package domain

import "errors"

var (
	// ErrTableNotFound возвращается, если стол не найден в хранилище.
	ErrTableNotFound = errors.New("table not found")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если продукт не существует.
	ErrProductNotFound = errors.New("product not found")

	// ErrTableOccupied — стол уже занят открытым заказом.
	ErrTableOccupied = errors.New("table already occupied")
	// ErrTableNotAvailable — бронь возможна только из available.
	ErrTableNotAvailable = errors.New("table is not available")
	// ErrGuestCountInvalid — число гостей вне диапазона [1, capacity].
	ErrGuestCountInvalid = errors.New("guest count must be between 1 and table capacity")
	// ErrProductUnavailable — продукт существует, но временно недоступен.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrIllegalTransition — недопустимый переход статуса выполнения.
	ErrIllegalTransition = errors.New("illegal fulfillment transition")
	// ErrOrderAlreadyPaid — повторная оплата запрещена, это ошибка, а не no-op.
	ErrOrderAlreadyPaid = errors.New("order already paid")
	// ErrTableNumberTaken — номер стола уже занят.
	ErrTableNumberTaken = errors.New("table number already exists")

	// ErrTableVersionConflict сигнализирует о конфликте версий при conditional update стола.
	ErrTableVersionConflict = errors.New("table version conflict")
	// ErrOrderExists возвращается при попытке вставить заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")

	// Ошибки инвариантов сущностей.
	ErrTableIDRequired        = errors.New("table_id is required")
	ErrItemsRequired          = errors.New("order must contain at least one item")
	ErrItemQtyInvalid         = errors.New("item quantity must be greater than zero")
	ErrItemPriceInvalid       = errors.New("item price must be non-negative")
	ErrAmountNegative         = errors.New("total amount must be non-negative")
	ErrAmountMismatch         = errors.New("order total does not match items sum")
	ErrTableNumberInvalid     = errors.New("table number must be greater than zero")
	ErrTableCapacityInvalid   = errors.New("table capacity must be greater than zero")
	ErrTableStatusInvalid     = errors.New("unknown table status")
	ErrTableStateInconsistent = errors.New("table fields are inconsistent with status")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrTableVersionConflict)
}

// IsPreconditionViolation проверяет, относится ли ошибка к классу
// precondition-violation: запрос отклоняется без повтора и без коррекции.
func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrTableOccupied) ||
		errors.Is(err, ErrTableNotAvailable) ||
		errors.Is(err, ErrGuestCountInvalid) ||
		errors.Is(err, ErrProductUnavailable) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrOrderAlreadyPaid)
}
