package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rental-contracts-backend/internal/app"
)

func sequenceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect and reset serial number counters",
	}
	cmd.AddCommand(sequenceShowCmd(opts), sequenceResetCmd(opts))
	return cmd
}

func sequenceShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <namespace>",
		Short: "Show a counter and the next serial it will issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				c, err := a.Sequences.Current(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-8s  %-10s  %s\n", "Namespace", "Prefix", "Value", "Next")
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-8s  %-10d  %s\n", c.Namespace, c.Prefix, c.Value, c.Format(c.Value+1))
				return nil
			})
		},
	}
}

func sequenceResetCmd(opts *options) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reset <namespace> <value>",
		Short: "Move a counter to value, leaving an audit record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			actor, err := opts.requireActor()
			if err != nil {
				return err
			}
			return opts.withEngine(cmd.Context(), func(a *app.App) error {
				reset, err := a.Sequences.Reset(cmd.Context(), args[0], value, actor, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s from %d to %d\n", reset.Namespace, reset.OldValue, reset.NewValue)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the counter is being reset")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
