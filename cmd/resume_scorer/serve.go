package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scorer/internal/fetch"
	"github.com/jonathan/resume-scorer/internal/jobs"
	"github.com/jonathan/resume-scorer/internal/rendering"
	"github.com/jonathan/resume-scorer/internal/server"
)

// minJanitorInterval bounds how often the job store is swept.
const minJanitorInterval = time.Minute

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that accepts résumé uploads, runs analyses in the background and serves their status, JSON results, HTML reports and PDF downloads.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.close()
			if port > 0 {
				a.cfg.Server.Port = port
			}

			srv, err := buildServer(a)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config, 8000)")
	return cmd
}

// buildServer wires the analyzer, job runner, fetcher, PDF printer and rate
// limiter into an HTTP server. The janitor started here stops with the runner.
func buildServer(a *app) (*server.Server, error) {
	analyzer, err := a.analyzer()
	if err != nil {
		return nil, err
	}
	renderer, err := rendering.NewHTMLRenderer(a.cfg.ReportTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load report template: %w", err)
	}

	runner := jobs.NewRunner(jobs.NewStore(a.cfg.Jobs.TTL), analyzer, renderer.Render, jobs.RunnerConfig{
		MaxConcurrent: a.cfg.Jobs.MaxConcurrent,
		JobTimeout:    a.cfg.Jobs.Timeout,
		Logger:        a.log,
	})
	runner.StartJanitor(max(a.cfg.Jobs.TTL/24, minJanitorInterval))

	srv, err := server.New(server.Config{
		Port:          a.cfg.Server.Port,
		AllowedOrigin: a.cfg.Server.AllowedOrigin,
		Runner:        runner,
		Fetcher:       a.fetcher(),
		PDF:           fetch.ChromePDFPrinter(a.cfg.Fetch.BrowserTimeout, a.log),
		RateLimit:     a.cfg.RateLimit.Limiter(),
		Logger:        a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}
