// Package main provides the entry point for the résumé scorer CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
	jsonLog    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "resume_scorer",
		Short:         "Résumé compatibility scorer",
		Long:          "Resume Scorer compares a résumé with a job description and reports keyword coverage, semantic matches, formatting flags and suggestions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonLog, "log-json", false, "Write logs as JSON")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newExtractTermsCmd(opts),
		newServeCmd(opts),
		newValidateCmd(opts),
	)
	return cmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
