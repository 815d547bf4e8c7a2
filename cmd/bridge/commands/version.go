package commands

import (
	"fmt"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/app"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bridge %s\n", app.BuildVersion)
	},
}
