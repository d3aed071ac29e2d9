package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// feeConfigService caches the default service fee percent. The stored
// setting, when present, wins over the configured one.
type feeConfigService struct {
	repo       repository.FeeSettingRepository
	configured decimal.Decimal

	mu      sync.RWMutex
	current decimal.Decimal
}

func NewFeeConfigService(repo repository.FeeSettingRepository, configured decimal.Decimal) FeeConfigService {
	return &feeConfigService{repo: repo, configured: configured, current: configured}
}

func (s *feeConfigService) DefaultPercent() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *feeConfigService) Refresh(ctx context.Context) (decimal.Decimal, error) {
	pct, err := s.repo.GetServicePercent(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		pct = s.configured
	} else if err != nil {
		return s.DefaultPercent(), fmt.Errorf("failed to read fee settings: %w", err)
	}

	s.mu.Lock()
	changed := !s.current.Equal(pct)
	s.current = pct
	s.mu.Unlock()

	if changed {
		logger.Info("Default service fee percent changed", "percent", pct.String())
	}
	return pct, nil
}

func (s *feeConfigService) Set(ctx context.Context, percent decimal.Decimal, actor string) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return fmt.Errorf("%w: service fee percent must be between 0 and 100", domain.ErrInvalidInput)
	}
	if err := s.repo.SetServicePercent(ctx, percent, actor); err != nil {
		return fmt.Errorf("failed to store fee settings: %w", err)
	}

	s.mu.Lock()
	s.current = percent
	s.mu.Unlock()

	logger.Info("Default service fee percent set", "percent", percent.String(), "actor", actor)
	return nil
}
