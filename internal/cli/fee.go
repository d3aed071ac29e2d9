package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rental-contracts-backend/internal/app"
)

func feeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Show or change the platform service fee",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the service fee percent in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%%\n", a.Fees.DefaultPercent().String())
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "set <percent>",
		Short: "Store a new service fee percent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid percent %q: %w", args[0], err)
			}
			actor, err := opts.requireActor()
			if err != nil {
				return err
			}
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				if err := a.Fees.Set(cmd.Context(), pct, actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service fee set to %s%%\n", pct.String())
				return nil
			})
		},
	})
	return cmd
}
