package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"

	"github.com/lib/pq"
)

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, ev *domain.OutboxEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode outbox payload: %w", err)
	}
	query := `INSERT INTO outbox_events (id, type, aggregate_id, payload, attempts, status, next_attempt_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		ev.ID, ev.Type, ev.AggregateID, payload, ev.Attempts, ev.Status, ev.NextAttemptAt, ev.CreatedAt)
	return err
}

func (r *outboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error) {
	query := `SELECT id, type, aggregate_id, payload, attempts, status, next_attempt_at, COALESCE(last_error, ''), created_at, delivered_at
	          FROM outbox_events WHERE status = 'pending' AND next_attempt_at <= $1
	          ORDER BY created_at LIMIT $2`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var ev domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.AggregateID, &payload, &ev.Attempts, &ev.Status, &ev.NextAttemptAt,
			&ev.LastError, &ev.CreatedAt, &ev.DeliveredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &ev.Payload); err != nil {
			logger.Warn("Skipping undecodable outbox payload", "eventID", ev.ID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events SET status = 'delivered', delivered_at = $1 WHERE id = ANY($2)`, at, pq.Array(ids))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil, "table", "outbox_events")
	return nil
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events SET attempts = $2, next_attempt_at = $3, last_error = $4 WHERE id = $1`,
		id, attempts, next, lastErr)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events SET status = 'failed', attempts = $2, last_error = $3 WHERE id = $1`,
		id, attempts, lastErr)
	return err
}

func (r *outboxRepository) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT status, count(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OutboxStatus]int)
	for rows.Next() {
		var status domain.OutboxStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
