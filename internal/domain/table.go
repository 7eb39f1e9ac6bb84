package domain

import "time"

// TableStatus описывает занятость стола.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableReserved  TableStatus = "reserved"
	TableOccupied  TableStatus = "occupied"
)

// IsValidTableStatus проверяет, что статус входит в известный набор.
func IsValidTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableReserved, TableOccupied:
		return true
	}
	return false
}

// Table — физический стол кафе. Запись создаётся один раз и не удаляется,
// статус циклически меняется. Version используется для conditional update:
// хранилище применяет Save только при совпадении версии.
type Table struct {
	ID string
	// TableNumber — уникальный человекочитаемый номер.
	TableNumber int
	Capacity    int
	Status      TableStatus
	// CurrentOrderID заполнен только когда стол occupied открытым заказом.
	CurrentOrderID string
	Note           string
	// ReservedBy/ReservedAt заполнены только в статусе reserved.
	ReservedBy string
	ReservedAt *time.Time
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Occupy переводит стол в occupied под указанный заказ.
func (t *Table) Occupy(orderID string, now time.Time) {
	t.Status = TableOccupied
	t.CurrentOrderID = orderID
	t.UpdatedAt = now
}

// Reserve переводит стол в reserved за указанным пользователем.
func (t *Table) Reserve(requesterID, note string, now time.Time) {
	t.Status = TableReserved
	t.ReservedBy = requesterID
	t.ReservedAt = &now
	t.Note = note
	t.UpdatedAt = now
}

// MakeAvailable возвращает стол в available, очищая ссылку на заказ и бронь:
// в available не должно оставаться ни current_order_id, ни reserved_by.
func (t *Table) MakeAvailable(now time.Time) {
	t.Status = TableAvailable
	t.CurrentOrderID = ""
	t.ReservedBy = ""
	t.ReservedAt = nil
	t.UpdatedAt = now
}

// ValidateInvariants проверяет согласованность статуса и связанных полей.
func (t *Table) ValidateInvariants() []error {
	var errs []error

	if t.TableNumber < 1 {
		errs = append(errs, ErrTableNumberInvalid)
	}
	if t.Capacity < 1 {
		errs = append(errs, ErrTableCapacityInvalid)
	}

	switch t.Status {
	case TableAvailable:
		if t.CurrentOrderID != "" || t.ReservedBy != "" {
			errs = append(errs, ErrTableStateInconsistent)
		}
	case TableReserved:
		if t.ReservedBy == "" || t.CurrentOrderID != "" {
			errs = append(errs, ErrTableStateInconsistent)
		}
	case TableOccupied:
		if t.CurrentOrderID == "" {
			errs = append(errs, ErrTableStateInconsistent)
		}
	default:
		errs = append(errs, ErrTableStatusInvalid)
	}

	return errs
}
