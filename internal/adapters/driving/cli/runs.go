package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

var (
	runsPipeline string
	runsStatus   string
	runsLimit    int
	runsOffset   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted pipeline run summaries",
	Args:  cobra.NoArgs,
	RunE:  runRunsCmd,
}

func init() {
	runsCmd.Flags().StringVar(&runsPipeline, "pipeline", "", "filter by pipeline name")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (completed|failed)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "number of runs to skip")
	rootCmd.AddCommand(runsCmd)
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	if err := ensureRunStore(); err != nil {
		return err
	}

	runs, err := runStore.ListRuns(cmd.Context(), domain.RunFilter{
		Pipeline: runsPipeline,
		Status:   domain.RunStatus(runsStatus),
		Limit:    runsLimit,
		Offset:   runsOffset,
	})
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		label := ""
		if run.DryRun {
			label = " dry-run"
		}
		cmd.Printf("#%d %s %s%s: %d candidate(s), %d upserted, %d skipped, %d error(s) [%s]\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Pipeline, label,
			run.TotalCandidates,
			len(run.Upserted), len(run.Skipped), len(run.Errors),
			run.Status)
	}
	return nil
}
