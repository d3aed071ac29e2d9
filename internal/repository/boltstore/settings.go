package boltstore

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"
)

const servicePercentKey = "service_percent"

type feeSetting struct {
	Value     decimal.Decimal `json:"value"`
	UpdatedBy string          `json:"updated_by"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type feeSettingRepository struct {
	s *Store
}

func (r *feeSettingRepository) GetServicePercent(ctx context.Context) (decimal.Decimal, error) {
	var fs feeSetting
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketSettings, servicePercentKey, &fs)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return fs.Value, nil
}

func (r *feeSettingRepository) SetServicePercent(ctx context.Context, percent decimal.Decimal, actor string) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketSettings, servicePercentKey, &feeSetting{Value: percent, UpdatedBy: actor, UpdatedAt: time.Now().UTC()})
	})
}
