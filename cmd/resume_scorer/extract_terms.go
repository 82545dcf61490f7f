package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scorer/internal/ingestion"
)

// termsOutput is the JSON written by extract-terms.
type termsOutput struct {
	Count int      `json:"count"`
	Terms []string `json:"terms"`
}

func newExtractTermsCmd(root *rootOptions) *cobra.Command {
	var (
		inputFile string
		maxTerms  int
	)

	cmd := &cobra.Command{
		Use:   "extract-terms",
		Short: "Extract normalized key terms from a text file",
		Long:  "Extract the normalized key terms of a job description or résumé text file and print them as JSON, in extraction order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := readTermsInput(inputFile)
			if err != nil {
				return err
			}
			if maxTerms <= 0 {
				maxTerms = a.cfg.Analysis.MaxKeywords
			}

			extractor, err := a.extractor()
			if err != nil {
				return err
			}
			found, err := extractor.Extract(cmd.Context(), text, maxTerms)
			if err != nil {
				return fmt.Errorf("failed to extract terms: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), termsOutput{Count: len(found), Terms: found})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "in", "i", "", "Path to the input file (required)")
	cmd.Flags().IntVar(&maxTerms, "max", 0, "Maximum number of terms (default from config, 80)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// readTermsInput reads résumé formats through the extractor and anything else
// as plain text.
func readTermsInput(path string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ingestion.Ext(path)) {
	case ".pdf", ".docx":
		text, err = ingestion.ReadResumeFile(path)
	default:
		text, err = ingestion.ReadTextFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return text, nil
}
