package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
)

var (
	syncDryRun bool
	syncFull   bool
	syncSince  string
)

var syncCmd = &cobra.Command{
	Use:   "sync [pipeline]",
	Short: "Synchronise drive folders into the vector store",
	Long: `Runs the ingestion pipelines once. If a pipeline name is given, only
that pipeline runs; otherwise all configured pipelines run in order.
Unchanged files (same last-modified timestamp as stored) are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "process files but do not write to the store")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "consider all files regardless of modification time")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "only consider files modified after this time (RFC3339 or YYYY-MM-DD)")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureRunner(ctx); err != nil {
		return err
	}

	opts := driving.RunOptions{DryRun: syncDryRun, Full: syncFull}
	if syncSince != "" {
		since, err := parseSince(syncSince)
		if err != nil {
			return err
		}
		opts.Since = since
	}

	var pipelines []string
	if len(args) > 0 {
		pipelines = args
	} else {
		for _, p := range pipelineRunner.Pipelines() {
			pipelines = append(pipelines, p.Name)
		}
	}

	for _, name := range pipelines {
		cmd.Printf("Running pipeline %s...\n", name)
		summary, err := pipelineRunner.Run(ctx, name, opts)
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", name, err)
		}
		printSummary(cmd, summary)
	}
	return nil
}

// parseSince accepts RFC3339 or a bare date.
func parseSince(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q (want RFC3339 or YYYY-MM-DD)", value)
}

func printSummary(cmd *cobra.Command, summary *domain.RunSummary) {
	label := ""
	if summary.DryRun {
		label = " (dry run)"
	}
	cmd.Printf("  %s%s: %d candidate(s), %d upserted, %d skipped, %d error(s) in %s\n",
		summary.Pipeline, label,
		summary.TotalCandidates,
		len(summary.Upserted), len(summary.Skipped), len(summary.Errors),
		summary.CompletedAt.Sub(summary.StartedAt).Round(time.Millisecond))

	for _, item := range summary.Errors {
		cmd.Printf("    error: %s: %s\n", item.FileName, item.Detail)
	}
}
