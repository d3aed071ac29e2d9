package jobs

import (
	"context"

	"rental-contracts-backend/internal/logger"
)

// RefreshFeeConfig reloads the platform service fee so changes made by
// another instance are picked up.
func (jr *JobRunner) RefreshFeeConfig() {
	jr.runWithRecovery("RefreshFeeConfig", func(ctx context.Context) {
		pct, err := jr.services.Fees.Refresh(ctx)
		if err != nil {
			logger.Error("Failed to refresh fee config", "error", err)
			return
		}
		logger.Info("Service fee refreshed", "percent", pct.String())
	})
}
