package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

var (
	searchLimit       int
	searchMinScore    float64
	searchCollections []string
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Hybrid search across the synchronised collections",
	Long: `Performs hybrid retrieval: the query is embedded and sparse-encoded,
each collection is searched on both signals, and results are fused by
reciprocal rank. A low-confidence result set triggers one expanded retry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default 5)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "confidence threshold for the top score")
	searchCmd.Flags().StringSliceVar(&searchCollections, "collections", nil, "restrict the search to these collections")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	if err := ensureRetrieval(); err != nil {
		return err
	}

	query := strings.Join(args, " ")
	opts := domain.SearchOptions{
		Collections: searchCollections,
		Limit:       searchLimit,
		MinScore:    searchMinScore,
	}
	if appConfig != nil {
		if opts.MinScore == 0 {
			opts.MinScore = appConfig.Search.MinScore
		}
		if opts.Limit == 0 {
			opts.Limit = appConfig.Search.Limit
		}
	}

	retrieval, err := retrievalService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(retrieval, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printRetrieval(cmd, retrieval)
	return nil
}

func printRetrieval(cmd *cobra.Command, retrieval *domain.Retrieval) {
	if len(retrieval.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	if !retrieval.Confident {
		cmd.Println("Low-confidence results; treat with caution.")
	}
	if retrieval.Attempts > 1 {
		cmd.Printf("Query expanded to: %s\n", retrieval.Query)
	}
	cmd.Println()

	for i, r := range retrieval.Results {
		title := r.Payload.Title
		if title == "" {
			title = r.ID
		}
		cmd.Printf("  [%d] %s (%s, %.4f)\n", i+1, title, r.Collection, r.Score)
		if r.Payload.Code != "" {
			cmd.Printf("      Code: %s\n", r.Payload.Code)
		}
		if r.Payload.FileName != "" {
			cmd.Printf("      File: %s\n", r.Payload.FileName)
		}
		if snippet := snippetOf(r.Payload); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

// snippetOf returns a short excerpt for terminal display.
func snippetOf(p domain.RecordPayload) string {
	text := p.SearchText
	if text == "" {
		text = p.Content
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 160 {
		text = text[:160] + "..."
	}
	return text
}
