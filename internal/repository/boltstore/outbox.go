package boltstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type outboxRepository struct {
	s *Store
}

func (r *outboxRepository) Enqueue(ctx context.Context, ev *domain.OutboxEvent) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketOutbox, ev.ID, ev)
	})
}

func (r *outboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error) {
	var due []domain.OutboxEvent
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOutbox).ForEach(func(k, v []byte) error {
			var ev domain.OutboxEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			if ev.Status == domain.OutboxStatusPending && !ev.NextAttemptAt.After(now) {
				due = append(due, ev)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		for _, id := range ids {
			err := r.modify(tx, id, func(ev *domain.OutboxEvent) {
				ev.Status = domain.OutboxStatusDelivered
				ev.DeliveredAt = &at
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return r.modify(tx, id, func(ev *domain.OutboxEvent) {
			ev.Attempts = attempts
			ev.NextAttemptAt = next
			ev.LastError = lastErr
		})
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return r.modify(tx, id, func(ev *domain.OutboxEvent) {
			ev.Status = domain.OutboxStatusFailed
			ev.Attempts = attempts
			ev.LastError = lastErr
		})
	})
}

func (r *outboxRepository) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	counts := make(map[domain.OutboxStatus]int)
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOutbox).ForEach(func(k, v []byte) error {
			var ev domain.OutboxEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			counts[ev.Status]++
			return nil
		})
	})
	return counts, err
}

func (r *outboxRepository) modify(tx *bolt.Tx, id string, fn func(ev *domain.OutboxEvent)) error {
	var ev domain.OutboxEvent
	if err := get(tx, bucketOutbox, id, &ev); err != nil {
		return err
	}
	fn(&ev)
	return put(tx, bucketOutbox, id, &ev)
}
