package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rental-contracts-backend/internal/schema"
)

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate needs the postgres storage driver, got %q", cfg.Storage.Driver)
			}

			db, err := schema.OpenPostgres(cfg.GetDatabaseConnectionString())
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := schema.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(schema.Models()))
			return nil
		},
	}
}
