package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored session of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			user := env.Coach.ResolveUserID(userID)
			if err := env.Coach.Reset(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared\n", user)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's conversation as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			exp, err := env.Coach.Export(ctx, env.Coach.ResolveUserID(userID))
			if err != nil {
				return err
			}
			if outPath == "" {
				return writeJSON(cmd.OutOrStdout(), exp)
			}
			data, err := exp.MarshalIndented()
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d exchanges to %s\n", len(exp.Conversation), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the export to a file instead of stdout")
	return cmd
}

func newSummarizeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate and store a summary of a user's session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			summary, _, err := env.Coach.Summarize(ctx, env.Coach.ResolveUserID(userID))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.SummaryText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full structured summary")
	return cmd
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with a stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			users, err := env.Coach.Users(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}
