package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/ingestion"
	"github.com/jonathan/resume-scorer/internal/logger"
	"github.com/jonathan/resume-scorer/internal/observability"
	"github.com/jonathan/resume-scorer/internal/rendering"
	"github.com/jonathan/resume-scorer/internal/schemas"
	"github.com/jonathan/resume-scorer/internal/types"
	reportschema "github.com/jonathan/resume-scorer/schemas"
)

type analyzeOptions struct {
	resume     string
	jdFile     string
	jdURL      string
	useBrowser bool
	out        string
	html       string
	verbose    bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a résumé against a job description",
		Long: `Score a résumé (PDF, DOCX, TXT or MD) against an optional job description
read from a file or fetched from a posting URL. The JSON report is validated
against the report schema and written to --out, or stdout when --out is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resume, "resume", "r", "", "Path to the résumé file (required)")
	cmd.Flags().StringVar(&opts.jdFile, "jd", "", "Path to a job description text file")
	cmd.Flags().StringVar(&opts.jdURL, "jd-url", "", "URL of a job posting to fetch")
	cmd.Flags().BoolVar(&opts.useBrowser, "use-browser", false, "Render client-side job postings in headless Chrome")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Path to write the JSON report")
	cmd.Flags().StringVar(&opts.html, "html", "", "Path to write the HTML report")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print a summary of the report to stderr")

	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-url")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	resumeText, err := ingestion.ReadResumeFile(opts.resume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	var jd string
	switch {
	case opts.jdFile != "":
		jd, err = ingestion.ReadTextFile(opts.jdFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
	case opts.jdURL != "":
		jd, _, err = ingestion.FromURL(ctx, a.fetcher(), opts.jdURL, opts.useBrowser, a.log)
		if err != nil {
			return fmt.Errorf("failed to fetch job description: %w", err)
		}
	}

	analyzer, err := a.analyzer()
	if err != nil {
		return err
	}

	jobID := uuid.NewString()
	report, err := analyzer.Analyze(ctx, analysis.Input{
		JobID:          jobID,
		Filename:       filepath.Base(opts.resume),
		ResumeText:     resumeText,
		JobDescription: jd,
	}, func(ev analysis.ProgressEvent) {
		a.log.Debug(ev.Message,
			zap.String(logger.FieldJobID, jobID),
			zap.String(logger.FieldStatus, string(ev.Stage)),
			zap.Int("progress", ev.Progress),
		)
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := validateReport(a.cfg.ReportSchemaPath, jsonBytes); err != nil {
		return err
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, jsonBytes, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if opts.html != "" {
		if err := writeHTML(a.cfg.ReportTemplatePath, opts.html, report); err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	if opts.verbose {
		observability.NewPrinter(stderr).PrintReport(report)
	}
	if opts.out != "" {
		_, _ = fmt.Fprintf(stderr, "Score: %.1f / 100\n", report.Scores.Total)
		_, _ = fmt.Fprintf(stderr, "Output: %s\n", opts.out)
	}
	return nil
}

// checkReport validates data against the schema at schemaPath, or the
// embedded report schema when schemaPath is empty.
func checkReport(schemaPath string, data []byte) error {
	if schemaPath != "" {
		return schemas.ValidateBytes(schemaPath, data)
	}
	return schemas.ValidateDocument(reportschema.Report, data)
}

// validateReport is checkReport for generated output: a schema that cannot be
// loaded only warns.
func validateReport(schemaPath string, data []byte) error {
	err := checkReport(schemaPath, data)
	if err == nil {
		return nil
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("generated report does not validate against schema: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate report against schema: %v\n", err)
	return nil
}

func writeHTML(templatePath, outPath string, report *types.Report) error {
	renderer, err := rendering.NewHTMLRenderer(templatePath)
	if err != nil {
		return fmt.Errorf("failed to load report template: %w", err)
	}
	html, err := renderer.Render(report)
	if err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	return nil
}

// writeJSON writes v to w as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
