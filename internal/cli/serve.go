package cli

import (
	"fmt"

	"neuromatch/internal/common"
	"neuromatch/internal/config"
	"neuromatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing report generation and its helpers.

Available endpoints:
- POST /report: Generate a full report and return it as JSON
- POST /report/stream: Stream report sections as Server-Sent Events
- POST /extract: Extract text from an uploaded .txt, .md or .docx file
- POST /export: Render a report as markdown, text or json
- POST /jobs/search: Search and score job postings
- GET /health: Health check endpoint
- GET /stats: Cache, rate limiting and generator statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeOverrides copies explicitly set flags over the loaded config
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag   string
		target *string
	}{
		{"port", &cfg.Server.Port},
		{"host", &cfg.Server.Host},
		{"tls-mode", &cfg.Server.TLS.Mode},
		{"cert-file", &cfg.Server.TLS.CertFile},
		{"key-file", &cfg.Server.TLS.KeyFile},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.target, _ = cmd.Flags().GetString(o.flag)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := contextDeps(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	applyServeOverrides(cmd, cfg)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	pipeline, err := common.NewPipeline(ctx, cfg, Version, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(ctx); err != nil {
			logger.Warn("Pipeline shutdown incomplete", "error", err)
		}
	}()

	if err := pipeline.WatchPrompts(); err != nil {
		logger.Warn("Prompt hot reload disabled", "error", err)
	}

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), server.Dependencies{
		Reports:       pipeline.Orchestrator,
		Jobs:          pipeline.Jobs,
		Generator:     pipeline.Generator,
		Cache:         pipeline.Cache,
		Observability: pipeline.Observability,
	}, logger)
	return srv.Start(ctx)
}
