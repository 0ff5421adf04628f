package cli

import (
	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Set by Run's wiring, or by tests.
var (
	pipelineRunner    driving.PipelineRunner
	retrievalService  driving.RetrievalService
	pipelineScheduler driving.Scheduler
	runStore          driven.RunStore
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "driftsync",
	Short: "Incremental drive-to-vector-store synchronisation",
	Long: `driftsync keeps hybrid search collections in sync with a remote drive.
It lists configured drive folders, detects changed files, extracts and
embeds their content and upserts the results into a Qdrant instance.
It also serves hybrid retrieval over the synchronised collections.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.driftsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
