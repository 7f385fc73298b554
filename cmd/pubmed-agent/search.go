// Copyright Tales Pardini, 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pardinithales/pubmed-agent/internal/evaluate"
	"github.com/pardinithales/pubmed-agent/internal/pubmed"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Execute a single PubMed query and score it",
	Long: `Search runs one query against the NCBI E-utilities and prints the hit
count, the quality score, and the diagnosed issues. No rewriting happens;
use refine for the full loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		maxResults, _ := cmd.Flags().GetInt("max-results")
		asJSON, _ := cmd.Flags().GetBool("json")

		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("--query is required")
		}

		cfg := buildConfig()
		client := pubmed.NewClient(cfg.PubMed)

		sr, err := client.Search(cmd.Context(), query, maxResults)
		if err != nil {
			return err
		}
		ev := evaluate.Evaluate(sr)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Query      string           `json:"query"`
				TotalCount int              `json:"total_count"`
				PMIDs      []string         `json:"pmids"`
				Evaluation types.Evaluation `json:"evaluation"`
				Titles     []string         `json:"sample_titles,omitempty"`
			}{query, sr.TotalCount, sr.IDs, ev, sr.SampleTitles})
		}

		fmt.Fprintf(os.Stdout, "%d results for: %s\n", sr.TotalCount, query)
		fmt.Fprintf(os.Stdout, "score %.3f (count %.2f, primary %.2f, review %.2f)\n",
			ev.OverallScore, ev.CountScore, ev.PrimaryStudiesRatio, ev.SystematicReviewsRatio)
		if ev.Clean() {
			color.New(color.FgGreen).Fprintln(os.Stdout, "issues: none")
		} else {
			color.New(color.FgYellow).Fprintf(os.Stdout, "issues: %s\n", ev.IssueSummary())
		}
		for i, title := range sr.SampleTitles {
			fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, title)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("query", "", "PubMed boolean query to execute")
	searchCmd.Flags().Int("max-results", 0, "maximum PMIDs to return (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
