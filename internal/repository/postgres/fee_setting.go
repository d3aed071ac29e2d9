package postgres

import (
	"context"
	"database/sql"
	"time"

	"rental-contracts-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const servicePercentKey = "service_percent"

type feeSettingRepository struct {
	db *sql.DB
}

func NewFeeSettingRepository(db *sql.DB) repository.FeeSettingRepository {
	return &feeSettingRepository{db: db}
}

func (r *feeSettingRepository) GetServicePercent(ctx context.Context) (decimal.Decimal, error) {
	var pct decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT value FROM fee_settings WHERE key = $1`, servicePercentKey).Scan(&pct)
	if err != nil {
		return decimal.Zero, notFound(err)
	}
	return pct, nil
}

func (r *feeSettingRepository) SetServicePercent(ctx context.Context, percent decimal.Decimal, actor string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO fee_settings (key, value, updated_by, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		servicePercentKey, percent, actor, time.Now().UTC())
	return err
}
