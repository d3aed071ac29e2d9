package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rental-contracts-backend/internal/app"
	"rental-contracts-backend/internal/domain"
)

func outboxCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain pending notifications",
	}
	cmd.AddCommand(outboxStatsCmd(opts), outboxDrainCmd(opts))
	return cmd
}

func outboxStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count outbox events by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				counts, err := a.Repos.Outbox.CountByStatus(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range []domain.OutboxStatus{domain.OutboxStatusPending, domain.OutboxStatusDelivered, domain.OutboxStatusFailed} {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d\n", s, counts[s])
				}
				return nil
			})
		},
	}
}

func outboxDrainCmd(opts *options) *cobra.Command {
	var rounds int
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Dispatch due events until none are left",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				var total struct{ delivered, retried, failed int }
				for i := 0; i < rounds; i++ {
					res, err := a.Outbox.Dispatch(cmd.Context())
					if err != nil {
						return err
					}
					total.delivered += res.Delivered
					total.retried += res.Retried
					total.failed += res.Failed
					if res.Delivered+res.Retried+res.Failed == 0 {
						break
					}
				}
				receipts, err := a.Outbox.RequestReceipts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "delivered=%d retried=%d failed=%d receipts=%d\n",
					total.delivered, total.retried, total.failed, receipts)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&rounds, "max-rounds", 20, "Upper bound on dispatch batches")
	return cmd
}
