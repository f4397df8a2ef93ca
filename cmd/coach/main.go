// Package main is the entry point for the coach CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Global flags.
var (
	configFile string
	userID     string
	debug      bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coach",
		Short: "Life-coach conversation engine",
		Long: `coach runs a non-directive life coach on top of an LLM. It keeps a
session state per user, serves an HTTP API, offers an interactive chat and
scores finished conversations against a criteria card.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				return os.Setenv("COACH_CONFIG_FILE", configFile)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "User id (default: DEFAULT_USER_ID)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newUsersCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coach %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
