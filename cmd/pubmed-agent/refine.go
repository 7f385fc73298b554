// Copyright Tales Pardini, 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pardinithales/pubmed-agent/internal/agent"
	"github.com/pardinithales/pubmed-agent/internal/refine"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Run the full generate-execute-score-rewrite loop",
	Long: `Refine takes a clinical question (inline via --question, from a YAML file
via --question-file, or an already-formed query via --query) and iterates
until the query lands in the ideal result range or the iteration budget is
spent. Each iteration is printed as it completes; the best query across all
iterations wins, not necessarily the last.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		questionFile, _ := cmd.Flags().GetString("question-file")
		query, _ := cmd.Flags().GetString("query")
		maxIterations, _ := cmd.Flags().GetInt("max-iterations")
		asJSON, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("out")

		if question == "" && questionFile == "" && query == "" {
			return fmt.Errorf("one of --question, --question-file, or --query is required")
		}

		if questionFile != "" {
			qf, err := refine.ReadQuestionFile(questionFile)
			if err != nil {
				return err
			}
			if qf.IsEmpty() {
				return fmt.Errorf("question file %s contains no usable text", questionFile)
			}
			question = qf.Text()
		}

		cfg := buildConfig()
		progress := os.Stderr
		a, err := agent.New(cfg, progress)
		if err != nil {
			return err
		}
		fmt.Fprintf(progress, "rewriter: %s\n", a.RewriterName())

		ctx := cmd.Context()
		var result types.RefineResult
		if query != "" {
			result, err = a.Refine(ctx, query, maxIterations)
		} else {
			result, err = a.Run(ctx, question, maxIterations)
		}
		if err != nil {
			// A failed run may still carry completed iterations worth
			// showing before exiting non-zero.
			if len(result.Iterations) > 0 {
				printIterations(result)
			}
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			printIterations(result)
			color.New(color.FgGreen, color.Bold).Fprintln(os.Stdout, "\nBest query:")
			fmt.Fprintln(os.Stdout, result.BestQuery)
		}

		if outPath != "" {
			questionText := question
			if questionText == "" {
				questionText = query
			}
			if err := refine.WriteRunFile(outPath, questionText, a.RewriterName(), cfg.Refine, result); err != nil {
				return err
			}
			fmt.Fprintf(progress, "run saved to %s\n", outPath)
		}
		return nil
	},
}

// printIterations renders the iteration trace with per-issue coloring.
func printIterations(result types.RefineResult) {
	bold := color.New(color.Bold)
	for _, it := range result.Iterations {
		bold.Fprintf(os.Stdout, "Iteration %d", it.IterationNumber)
		fmt.Fprintf(os.Stdout, "  (%d results, score %.3f)\n", it.ResultCount, it.Evaluation.OverallScore)
		fmt.Fprintf(os.Stdout, "  query:  %s\n", it.Query)
		if it.RefinementReason != "" {
			fmt.Fprintf(os.Stdout, "  reason: %s\n", it.RefinementReason)
		}
		if it.Evaluation.Clean() {
			color.New(color.FgGreen).Fprintln(os.Stdout, "  issues: none")
		} else {
			color.New(color.FgYellow).Fprintf(os.Stdout, "  issues: %s\n", it.Evaluation.IssueSummary())
		}
	}
}

func init() {
	refineCmd.Flags().String("question", "", "clinical question in PICOTT format")
	refineCmd.Flags().String("question-file", "", "YAML question file with picott elements")
	refineCmd.Flags().String("query", "", "skip generation and refine this PubMed query directly")
	refineCmd.Flags().Int("max-iterations", 0, "iteration budget (default from config)")
	refineCmd.Flags().Bool("json", false, "output the full result as JSON")
	refineCmd.Flags().String("out", "", "save the run to a YAML file")

	rootCmd.AddCommand(refineCmd)
}
