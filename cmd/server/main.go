// Command server runs the WordWave auth service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Running it without a subcommand
// starts the server.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "WordWave identity and access service",
		Long: `Serves registration, login and password reset for WordWave and
guards every route with a per-client rate limit.`,
		RunE:         serve.RunE,
		SilenceUsage: true,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
