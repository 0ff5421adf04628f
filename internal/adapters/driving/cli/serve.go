package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/adapters/driving/admin"
	"github.com/halyard-labs/driftsync/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic synchronisation scheduler",
	Long: `Starts the scheduler and blocks. Each pipeline runs on its own
interval with a staggered first run; a pipeline never overlaps itself.
An admin endpoint on the configured loopback address serves live status
and manual triggers for the status and trigger commands.
Stop with SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureScheduler(ctx); err != nil {
		return err
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	adminServer := admin.New(pipelineScheduler, cfg.Admin.Addr)
	if err := adminServer.Start(); err != nil {
		return err
	}
	defer func() {
		if err := adminServer.Stop(); err != nil {
			logger.Warn("Admin server shutdown: %v", err)
		}
	}()
	cmd.Printf("Admin endpoint on http://%s\n", adminServer.Addr())

	cmd.Println("Scheduler started. Press Ctrl+C to stop.")
	err = pipelineScheduler.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Scheduler stopped.")
	return nil
}
