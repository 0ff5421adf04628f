package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state and last run of each configured pipeline",
	Long: `Shows the last persisted run of every pipeline. When a serve process
is running, its live state (in-flight runs, next run times) is shown
as well.`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// adminStatus mirrors the admin status endpoint's response body.
type adminStatus struct {
	Running   bool                 `json:"running"`
	Pipelines []adminPipelineState `json:"pipelines"`
}

type adminPipelineState struct {
	Name    string    `json:"name"`
	Running bool      `json:"running"`
	NextRun time.Time `json:"next_run"`
}

func (s *adminStatus) pipeline(name string) *adminPipelineState {
	if s == nil {
		return nil
	}
	for i := range s.Pipelines {
		if s.Pipelines[i].Name == name {
			return &s.Pipelines[i]
		}
	}
	return nil
}

// fetchSchedulerStatus asks a running serve process for live state.
// Returns nil when no scheduler is reachable.
func fetchSchedulerStatus(ctx context.Context) *adminStatus {
	base, err := adminBase()
	if err != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/status", nil)
	if err != nil {
		return nil
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Debug("No running scheduler at %s: %v", base, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var doc adminStatus
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil
	}
	return &doc
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	if err := ensureRunStore(); err != nil {
		return err
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	live := fetchSchedulerStatus(cmd.Context())
	if live != nil && live.Running {
		cmd.Println("Scheduler running.")
	}

	for _, p := range cfg.DomainPipelines() {
		last, err := runStore.LastRun(cmd.Context(), p.Name)
		if err != nil {
			return fmt.Errorf("reading last run of %s: %w", p.Name, err)
		}

		cmd.Printf("%s (folder %s, collection %s, every %s)\n",
			p.Name, p.FolderPath, p.Collection, p.EffectiveInterval())
		if st := live.pipeline(p.Name); st != nil {
			if st.Running {
				cmd.Println("  run in progress")
			} else if !st.NextRun.IsZero() {
				cmd.Printf("  next run %s\n", st.NextRun.Local().Format(time.DateTime))
			}
		}
		if last == nil {
			cmd.Println("  never run")
			continue
		}
		cmd.Printf("  last run %s: %s, %d upserted, %d skipped, %d error(s)\n",
			last.StartedAt.Local().Format(time.DateTime),
			last.Status,
			len(last.Upserted), len(last.Skipped), len(last.Errors))
	}
	return nil
}
