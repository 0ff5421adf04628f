package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// adminBaseURL overrides the configured admin address. Set by tests.
var adminBaseURL string

var triggerCmd = &cobra.Command{
	Use:   "trigger <pipeline>",
	Short: "Run a pipeline now on the running scheduler",
	Long: `Asks a running serve process to start the pipeline immediately. The
run goes through the scheduler's per-pipeline lock, so it never
overlaps a scheduled run of the same pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runTriggerCmd,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

// adminRunResult mirrors the admin run endpoint's response body, for
// both the success and the error shape.
type adminRunResult struct {
	Pipeline        string `json:"pipeline"`
	Status          string `json:"status"`
	TotalCandidates int    `json:"total_candidates"`
	Upserted        int    `json:"upserted"`
	Skipped         int    `json:"skipped"`
	Errors          int    `json:"errors"`
	Error           string `json:"error"`
}

// adminBase returns the base URL of the serve process admin endpoint.
func adminBase() (string, error) {
	if adminBaseURL != "" {
		return adminBaseURL, nil
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Admin.Addr, nil
}

func runTriggerCmd(cmd *cobra.Command, args []string) error {
	base, err := adminBase()
	if err != nil {
		return err
	}
	pipeline := args[0]

	// Triggered runs execute synchronously and can take a while, so the
	// default client without a timeout is deliberate.
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		fmt.Sprintf("%s/run/%s", base, pipeline), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reaching scheduler at %s (is serve running?): %w", base, err)
	}
	defer resp.Body.Close()

	var result adminRunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("reading scheduler response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		cmd.Printf("  %s: %s, %d candidate(s), %d upserted, %d skipped, %d error(s)\n",
			result.Pipeline, result.Status, result.TotalCandidates,
			result.Upserted, result.Skipped, result.Errors)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("unknown pipeline %q", pipeline)
	case http.StatusConflict:
		return fmt.Errorf("pipeline %s already has a run in progress", pipeline)
	default:
		return fmt.Errorf("trigger failed: %s", result.Error)
	}
}
