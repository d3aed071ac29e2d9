package postgres

import (
	"context"
	"database/sql"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next relies on the row lock taken by UPDATE ... RETURNING; concurrent
// callers serialize on the counter row and each sees a distinct value.
func (r *sequenceRepository) Next(ctx context.Context, namespace string, defaults domain.SequenceCounter) (*domain.SequenceCounter, error) {
	q := conn(ctx, r.db)
	now := time.Now().UTC()

	_, err := q.ExecContext(ctx,
		`INSERT INTO sequence_counters (namespace, prefix, width, value, updated_at) VALUES ($1, $2, $3, 0, $4)
		 ON CONFLICT (namespace) DO NOTHING`,
		namespace, defaults.Prefix, defaults.Width, now)
	if err != nil {
		return nil, err
	}

	c := &domain.SequenceCounter{Namespace: namespace}
	logger.DatabaseCall("UPDATE", "sequence_counters", "namespace", namespace)
	err = q.QueryRowContext(ctx,
		`UPDATE sequence_counters SET value = value + 1, updated_at = $2 WHERE namespace = $1 RETURNING prefix, width, value, updated_at`,
		namespace, now).Scan(&c.Prefix, &c.Width, &c.Value, &c.UpdatedAt)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "namespace", namespace)
		return nil, notFound(err)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "namespace", namespace, "value", c.Value)
	return c, nil
}

func (r *sequenceRepository) Get(ctx context.Context, namespace string) (*domain.SequenceCounter, error) {
	c := &domain.SequenceCounter{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT namespace, prefix, width, value, updated_at FROM sequence_counters WHERE namespace = $1`, namespace).
		Scan(&c.Namespace, &c.Prefix, &c.Width, &c.Value, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *sequenceRepository) Reset(ctx context.Context, reset *domain.SequenceReset) error {
	logger.EnterMethod("sequenceRepository.Reset", "namespace", reset.Namespace, "newValue", reset.NewValue)

	err := withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		if err := q.QueryRowContext(ctx,
			`SELECT value FROM sequence_counters WHERE namespace = $1 FOR UPDATE`, reset.Namespace).Scan(&reset.OldValue); err != nil {
			return notFound(err)
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE sequence_counters SET value = $2, updated_at = $3 WHERE namespace = $1`,
			reset.Namespace, reset.NewValue, reset.ResetAt); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO sequence_resets (id, namespace, old_value, new_value, actor, reason, reset_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			reset.ID, reset.Namespace, reset.OldValue, reset.NewValue, reset.Actor, reset.Reason, reset.ResetAt)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("sequenceRepository.Reset", err, "namespace", reset.Namespace)
		return err
	}

	logger.ExitMethod("sequenceRepository.Reset", "namespace", reset.Namespace, "oldValue", reset.OldValue)
	return nil
}
