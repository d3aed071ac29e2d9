package boltstore

import (
	"context"
	"fmt"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type propertyRepository struct {
	s *Store
}

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		if exists(tx, bucketProperties, p.ID) {
			return fmt.Errorf("%w: property %s", domain.ErrDuplicateKey, p.ID)
		}
		return put(tx, bucketProperties, p.ID, p)
	})
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketProperties, id, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) SetStatus(ctx context.Context, propertyID string, status domain.PropertyStatus, published bool) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		var p domain.Property
		if err := get(tx, bucketProperties, propertyID, &p); err != nil {
			return err
		}
		p.Status = status
		p.Published = published
		return put(tx, bucketProperties, propertyID, &p)
	})
}

func (r *propertyRepository) CreateUnit(ctx context.Context, u *domain.Unit) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketUnits, u.ID, u)
	})
}

func (r *propertyRepository) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	var u domain.Unit
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketUnits, id, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
