package boltstore

import (
	"context"
	"errors"
	"time"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type sequenceRepository struct {
	s *Store
}

func (r *sequenceRepository) Next(ctx context.Context, namespace string, defaults domain.SequenceCounter) (*domain.SequenceCounter, error) {
	var c domain.SequenceCounter
	err := r.s.update(ctx, func(tx *bolt.Tx) error {
		err := get(tx, bucketSequences, namespace, &c)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c = domain.SequenceCounter{Namespace: namespace, Prefix: defaults.Prefix, Width: defaults.Width}
		case err != nil:
			return err
		}
		c.Value++
		c.UpdatedAt = time.Now().UTC()
		return put(tx, bucketSequences, namespace, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sequenceRepository) Get(ctx context.Context, namespace string) (*domain.SequenceCounter, error) {
	var c domain.SequenceCounter
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketSequences, namespace, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sequenceRepository) Reset(ctx context.Context, reset *domain.SequenceReset) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		var c domain.SequenceCounter
		if err := get(tx, bucketSequences, reset.Namespace, &c); err != nil {
			return err
		}
		reset.OldValue = c.Value
		c.Value = reset.NewValue
		c.UpdatedAt = reset.ResetAt
		if err := put(tx, bucketSequences, reset.Namespace, &c); err != nil {
			return err
		}
		return put(tx, bucketSequenceResets, reset.ID, reset)
	})
}
