package tables

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

// Service управляет столами: создание, бронирование, освобождение и ручная
// смена статуса. Конфликт conditional update отдаётся вызывающему как есть,
// внутренних повторов нет.
type Service struct {
	tables domain.TableRepository
	outbox domain.OutboxRepository
	logger *log.Entry
}

// New создаёт сервис столов. Outbox опционален: без него события брони
// и освобождения не эмитятся.
func New(tables domain.TableRepository, outbox domain.OutboxRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "tables")
	}
	return &Service{tables: tables, outbox: outbox, logger: logger}
}

// Create регистрирует новый стол со свободным номером.
func (s *Service) Create(number, capacity int) (domain.Table, error) {
	if number < 1 {
		return domain.Table{}, domain.ErrTableNumberInvalid
	}
	if capacity < 1 {
		return domain.Table{}, domain.ErrTableCapacityInvalid
	}

	now := time.Now().UTC()
	table := domain.Table{
		ID:          uuid.NewString(),
		TableNumber: number,
		Capacity:    capacity,
		Status:      domain.TableAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tables.Create(table); err != nil {
		return domain.Table{}, err
	}

	s.logger.WithFields(log.Fields{
		"table_id":     table.ID,
		"table_number": table.TableNumber,
	}).Info("table created")
	return table, nil
}

// Get возвращает стол по идентификатору.
func (s *Service) Get(id string) (domain.Table, error) {
	return s.tables.Get(id)
}

// List возвращает все столы.
func (s *Service) List() ([]domain.Table, error) {
	return s.tables.List()
}

// ListReservedBy возвращает столы, забронированные указанным пользователем.
func (s *Service) ListReservedBy(userID string) ([]domain.Table, error) {
	all, err := s.tables.List()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Table, 0)
	for _, table := range all {
		if table.Status == domain.TableReserved && table.ReservedBy == userID {
			result = append(result, table)
		}
	}
	return result, nil
}

// Reserve бронирует available-стол за пользователем. Число гостей, если
// указано, проверяется против вместимости. Конфликт версий — ошибка
// вызывающего, повторять запрос или нет решает он.
func (s *Service) Reserve(id, requesterID, note string, guestCount int) (domain.Table, error) {
	table, err := s.tables.Get(id)
	if err != nil {
		return domain.Table{}, err
	}
	if table.Status != domain.TableAvailable {
		return domain.Table{}, domain.ErrTableNotAvailable
	}
	if guestCount != 0 && (guestCount < 1 || guestCount > table.Capacity) {
		return domain.Table{}, domain.ErrGuestCountInvalid
	}

	table.Reserve(requesterID, note, time.Now().UTC())
	if err := s.tables.Save(table); err != nil {
		return domain.Table{}, err
	}

	s.emitEvent(table.ID, domain.EventTypeTableReserved, map[string]interface{}{
		"reserved_by": requesterID,
		"guest_count": guestCount,
	})
	s.logger.WithFields(log.Fields{
		"table_id":    table.ID,
		"reserved_by": requesterID,
	}).Info("table reserved")
	return table, nil
}

// Release безусловно возвращает стол в available — административный выход
// после потерянной парной записи или брошенной брони.
func (s *Service) Release(id string) (domain.Table, error) {
	table, err := s.tables.Release(id, time.Now().UTC())
	if err != nil {
		return domain.Table{}, err
	}
	s.emitEvent(table.ID, domain.EventTypeTableReleased, nil)
	s.logger.WithField("table_id", id).Info("table released")
	return table, nil
}

// UpdateStatus — ручная смена статуса стола. Переход в available или
// reserved очищает ссылку на заказ, reserved без брони закрепляется за
// инициатором запроса.
func (s *Service) UpdateStatus(id string, status domain.TableStatus, requesterID string) (domain.Table, error) {
	if !domain.IsValidTableStatus(status) {
		return domain.Table{}, domain.ErrTableStatusInvalid
	}

	table, err := s.tables.Get(id)
	if err != nil {
		return domain.Table{}, err
	}

	now := time.Now().UTC()
	switch status {
	case domain.TableAvailable:
		table.MakeAvailable(now)
	case domain.TableReserved:
		table.CurrentOrderID = ""
		table.Reserve(requesterID, table.Note, now)
	case domain.TableOccupied:
		// Ручное занятие без заказа: ссылка на заказ остаётся пустой.
		table.Status = domain.TableOccupied
		table.ReservedBy = ""
		table.ReservedAt = nil
		table.UpdatedAt = now
	}

	if err := s.tables.Save(table); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

// emitEvent кладёт событие стола в outbox для асинхронной публикации.
func (s *Service) emitEvent(tableID string, eventType domain.EventType, metadata map[string]interface{}) {
	if s.outbox == nil {
		return
	}

	data, err := json.Marshal(domain.NewLifecycleEvent(eventType, tableID, metadata))
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"table_id": tableID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateTable,
		AggregateID:   tableID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"table_id": tableID,
			"event":    eventType,
		}).Error("enqueue event failed")
	}
}
