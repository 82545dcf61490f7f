package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var (
		inputFile  string
		schemaPath string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON report against the report schema",
		Long:  "Validate a report written by analyze, or fetched from /api/result, against the report JSON Schema.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.close()

			if schemaPath == "" {
				schemaPath = a.cfg.ReportSchemaPath
			}
			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
			if err := checkReport(schemaPath, data); err != nil {
				return fmt.Errorf("%s is invalid: %w", inputFile, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid\n", inputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "in", "i", "", "Path to the JSON report (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to a JSON Schema (default: built-in report schema)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
