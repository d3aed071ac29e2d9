package service

import (
	"context"
	"fmt"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

type propertyStatusSync struct {
	propertyRepo repository.PropertyRepository
}

func NewPropertyStatusSync(propertyRepo repository.PropertyRepository) PropertyStatusSync {
	return &propertyStatusSync{propertyRepo: propertyRepo}
}

// Apply flips the property to leased and unpublished unless it already is.
// Called with a transactional context it joins that transaction.
func (s *propertyStatusSync) Apply(ctx context.Context, propertyID string) (bool, error) {
	logger.EnterMethod("propertyStatusSync.Apply", "propertyID", propertyID)

	p, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		logger.ExitMethodWithError("propertyStatusSync.Apply", err, "propertyID", propertyID)
		return false, fmt.Errorf("failed to load property %s: %w", propertyID, err)
	}
	if p.Status == domain.PropertyStatusLeased && !p.Published {
		logger.ExitMethod("propertyStatusSync.Apply", "propertyID", propertyID, "written", false)
		return false, nil
	}

	if err := s.propertyRepo.SetStatus(ctx, propertyID, domain.PropertyStatusLeased, false); err != nil {
		logger.ExitMethodWithError("propertyStatusSync.Apply", err, "propertyID", propertyID)
		return false, fmt.Errorf("failed to update property %s: %w", propertyID, err)
	}

	logger.Info("Property leased", "propertyID", propertyID, "previousStatus", p.Status)
	logger.ExitMethod("propertyStatusSync.Apply", "propertyID", propertyID, "written", true)
	return true, nil
}
