// Package cli implements enginectl, the operator command line for the engine.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rental-contracts-backend/internal/app"
	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/logger"
)

type options struct {
	configPath string
	actor      string
}

// RootCmd builds the enginectl command tree.
func RootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "enginectl",
		Short:         "Operate the contract and invoice engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.dev.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.actor, "actor", "", "Operator name recorded in audit rows")

	root.AddCommand(
		migrateCmd(opts),
		sequenceCmd(opts),
		outboxCmd(opts),
		feeCmd(opts),
	)
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// withEngine opens the configured store, runs fn and closes the store.
func (o *options) withEngine(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (o *options) requireActor() (string, error) {
	if o.actor == "" {
		return "", fmt.Errorf("--actor is required for this command")
	}
	return o.actor, nil
}
