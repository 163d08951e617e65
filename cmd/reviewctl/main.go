// Command reviewctl runs maintenance tasks against the Review Hero database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"review_hero/internal/adapters/observability"
	"review_hero/internal/bootstrap"
	"review_hero/internal/shared"
)

var cfg shared.Config

var rootCmd = &cobra.Command{
	Use:           "reviewctl",
	Short:         "Review Hero maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = shared.Load()
		log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, nudgeCmd)
	seedCmd.AddCommand(seedTemplatesCmd, seedDemoCmd)
	nudgeCmd.Flags().BoolVar(&nudgeWatch, "watch", false, "keep sweeping every NUDGE_INTERVAL (default 15m)")
}

// open connects to the database for the lifetime of one command.
func open(ctx context.Context) (*bootstrap.Deps, error) {
	return bootstrap.Open(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
