// Copyright Tales Pardini, 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pardinithales/pubmed-agent/internal/agent"
	"github.com/pardinithales/pubmed-agent/internal/refine"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the initial PubMed query from a PICOTT question",
	Long: `Generate writes the first boolean query for a clinical question without
executing it. Requires a generative provider; the rule-based rewriter cannot
invent a query from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		questionFile, _ := cmd.Flags().GetString("question-file")

		if question == "" && questionFile == "" {
			return fmt.Errorf("one of --question or --question-file is required")
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

		a, err := agent.New(buildConfig(), os.Stderr)
		if err != nil {
			return err
		}

		query, err := a.InitialQuery(cmd.Context(), question)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, query)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("question", "", "clinical question in PICOTT format")
	generateCmd.Flags().String("question-file", "", "YAML question file with picott elements")

	rootCmd.AddCommand(generateCmd)
}
