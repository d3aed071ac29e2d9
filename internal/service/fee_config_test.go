package service_test

import (
	"context"
	"errors"
	"testing"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeConfigService(t *testing.T) {
	ctx := context.Background()

	t.Run("Stored setting wins", func(t *testing.T) {
		repo := new(MockFeeSettingRepo)
		svc := service.NewFeeConfigService(repo, dec("5"))
		repo.On("GetServicePercent", ctx).Return(dec("7.5"), nil).Once()

		pct, err := svc.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "7.5", pct.String())
		assert.Equal(t, "7.5", svc.DefaultPercent().String())
	})

	t.Run("Falls back to configured", func(t *testing.T) {
		repo := new(MockFeeSettingRepo)
		svc := service.NewFeeConfigService(repo, dec("5"))
		repo.On("GetServicePercent", ctx).Return(decimal.Zero, domain.ErrNotFound).Once()

		pct, err := svc.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "5", pct.String())
	})

	t.Run("Store error keeps the cached value", func(t *testing.T) {
		repo := new(MockFeeSettingRepo)
		svc := service.NewFeeConfigService(repo, dec("5"))
		repo.On("GetServicePercent", ctx).Return(decimal.Zero, errors.New("timeout")).Once()

		_, err := svc.Refresh(ctx)
		assert.Error(t, err)
		assert.Equal(t, "5", svc.DefaultPercent().String())
	})

	t.Run("Set", func(t *testing.T) {
		repo := new(MockFeeSettingRepo)
		svc := service.NewFeeConfigService(repo, dec("5"))
		repo.On("SetServicePercent", ctx, dec("3"), "huda").Return(nil).Once()

		require.NoError(t, svc.Set(ctx, dec("3"), "huda"))
		assert.Equal(t, "3", svc.DefaultPercent().String())

		assert.ErrorIs(t, svc.Set(ctx, dec("101"), "huda"), domain.ErrInvalidInput)
		assert.ErrorIs(t, svc.Set(ctx, dec("-1"), "huda"), domain.ErrInvalidInput)
		repo.AssertExpectations(t)
	})
}

func TestPropertyStatusSync_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes when listed", func(t *testing.T) {
		repo := new(MockPropertyRepo)
		repo.On("GetByID", ctx, "p-1").Return(&domain.Property{ID: "p-1", Status: domain.PropertyStatusReserved, Published: true}, nil).Once()
		repo.On("SetStatus", ctx, "p-1", domain.PropertyStatusLeased, false).Return(nil).Once()

		written, err := service.NewPropertyStatusSync(repo).Apply(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, written)
		repo.AssertExpectations(t)
	})

	t.Run("Already leased", func(t *testing.T) {
		repo := new(MockPropertyRepo)
		repo.On("GetByID", ctx, "p-1").Return(&domain.Property{ID: "p-1", Status: domain.PropertyStatusLeased}, nil).Once()

		written, err := service.NewPropertyStatusSync(repo).Apply(ctx, "p-1")
		require.NoError(t, err)
		assert.False(t, written)
		repo.AssertNotCalled(t, "SetStatus", ctx, "p-1", domain.PropertyStatusLeased, false)
	})

	t.Run("Unknown property", func(t *testing.T) {
		repo := new(MockPropertyRepo)
		repo.On("GetByID", ctx, "p-9").Return(nil, domain.ErrNotFound).Once()

		_, err := service.NewPropertyStatusSync(repo).Apply(ctx, "p-9")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
