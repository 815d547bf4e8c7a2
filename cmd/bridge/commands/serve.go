package commands

import (
	"github.com/aussiebroadwan/ircbridge/internal/bridge/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Run the provisioning API and the bouncer auth callback.

Migrations are applied on startup. The service stops gracefully on SIGINT
or SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}

		application, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}
