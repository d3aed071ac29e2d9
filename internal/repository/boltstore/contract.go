package boltstore

import (
	"context"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type contractRepository struct {
	s *Store
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		if exists(tx, bucketContracts, c.ID) {
			return fmt.Errorf("%w: contract %s", domain.ErrDuplicateKey, c.ID)
		}
		now := time.Now().UTC()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		c.Version = 1
		return put(tx, bucketContracts, c.ID, c)
	})
}

func (r *contractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	var c domain.Contract
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketContracts, id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		var stored domain.Contract
		if err := get(tx, bucketContracts, c.ID, &stored); err != nil {
			return err
		}
		if stored.Version != c.Version {
			return domain.ErrConcurrentUpdate
		}

		next := *c
		next.Version = c.Version + 1
		next.UpdatedAt = time.Now().UTC()
		if err := put(tx, bucketContracts, c.ID, &next); err != nil {
			return err
		}
		c.Version = next.Version
		c.UpdatedAt = next.UpdatedAt
		return nil
	})
}
