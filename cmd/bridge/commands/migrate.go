package commands

import (
	"fmt"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending migrations to the configured database (DB_DRIVER, DB_DSN)
and exit. "serve" does the same on startup; this is for running them as a
separate deploy step.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}
		logger := app.NewLogger(cfg)

		st, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = st.Close() }()

		if err := st.ApplyMigrations(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		logger.Info("migrations completed", "driver", cfg.DBDriver)
		return nil
	},
}
