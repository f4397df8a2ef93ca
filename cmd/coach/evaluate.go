package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/evaluation"
)

func newEvaluateCmd() *cobra.Command {
	var (
		file         string
		priority     string
		criteriaPath string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a conversation against the criteria card",
		Long: `Evaluate a stored session (--user) or an export file (--file) against the
criteria card. --priority selects MUST, SHOULD or ALL checks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if criteriaPath == "" {
				criteriaPath = env.Config.CriteriaPath
			}

			var exp *coaching.Export
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read export: %w", err)
				}
				if exp, err = coaching.ParseExport(data); err != nil {
					return err
				}
			} else {
				if exp, err = env.Coach.Export(ctx, env.Coach.ResolveUserID(userID)); err != nil {
					return err
				}
			}

			report := env.Evaluator.EvaluateExport(ctx, exp, criteriaPath, priority)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), report.Markdown())
			}
			if report.Error != "" {
				return fmt.Errorf("evaluation failed: %s", report.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Evaluate an export file instead of a stored session")
	cmd.Flags().StringVarP(&priority, "priority", "p", evaluation.PriorityAll, "Check priority: MUST, SHOULD or ALL")
	cmd.Flags().StringVar(&criteriaPath, "criteria", "", "Criteria card (default: CRITERIA_PATH)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
