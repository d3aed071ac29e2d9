package jobs

import (
	"context"

	"rental-contracts-backend/internal/logger"
)

// DispatchOutbox delivers one batch of due outbox events.
func (jr *JobRunner) DispatchOutbox() {
	jr.runWithRecovery("DispatchOutbox", func(ctx context.Context) {
		res, err := jr.services.Outbox.Dispatch(ctx)
		if err != nil {
			logger.Error("Failed to dispatch outbox", "error", err)
			return
		}
		logger.Info("Outbox dispatched", "delivered", res.Delivered, "retried", res.Retried, "failed", res.Failed)
	})
}

// RequestReceipts renders receipts for paid invoices that still lack one.
func (jr *JobRunner) RequestReceipts() {
	jr.runWithRecovery("RequestReceipts", func(ctx context.Context) {
		n, err := jr.services.Outbox.RequestReceipts(ctx)
		if err != nil {
			logger.Error("Failed to request receipts", "error", err)
			return
		}
		logger.Info("Receipts attached", "count", n)
	})
}
