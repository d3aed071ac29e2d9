package boltstore

import (
	"context"
	"strings"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type reservationRepository struct {
	s *Store
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketReservations, res.ID, res)
	})
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketReservations, id, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

type couponRepository struct {
	s *Store
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	c.Code = strings.ToUpper(c.Code)
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketCoupons, c.Code, c)
	})
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketCoupons, strings.ToUpper(code), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
