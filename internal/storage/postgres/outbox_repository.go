package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

type outboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository создаёт PostgreSQL-реализацию transactional outbox.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{db: store.DB()}
}

func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, status)
		VALUES ($1,$2,$3,$4,$5,'pending')
	`, msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("insert outbox message: %w", err)
	}
	return msg, nil
}

// PullPending забирает pending-сообщения старые-первые. FOR UPDATE SKIP LOCKED
// позволяет нескольким воркерам разбирать очередь без взаимной блокировки.
func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload
		FROM outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull pending outbox: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.OutboxMessage, 0, limit)
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return messages, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var stats domain.OutboxStats
	var oldest sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at)
		FROM outbox
		WHERE status = 'pending'
	`).Scan(&stats.PendingCount, &oldest)
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("query outbox stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time
	}
	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.setStatus(id, "sent")
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.setStatus(id, "failed")
}

func (r *outboxRepository) setStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		SET status = $1,
		    attempts = attempts + 1,
		    sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update outbox status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outbox message %s not found", id)
	}
	return nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
