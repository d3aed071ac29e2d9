package postgres

import (
	"context"
	"database/sql"
	"strings"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
)

type couponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) repository.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO coupons (code, percent, active, expires_at) VALUES ($1, $2, $3, $4)`,
		strings.ToUpper(c.Code), c.Percent, c.Active, c.ExpiresAt)
	return err
}

// GetByCode matches codes case-insensitively.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT code, percent, active, expires_at FROM coupons WHERE code = $1`, strings.ToUpper(code)).
		Scan(&c.Code, &c.Percent, &c.Active, &c.ExpiresAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}
