package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"neuromatch/internal/common"
	"neuromatch/internal/types"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [resume-file]",
	Short: "Generate a career report for a résumé",
	Long: `Generate a career report from a résumé, optionally matched against a job
description. Input files may be plain text, markdown or .docx.

Modes:
  fast      light model for every section
  balanced  heavy model for diagnosis, ATS and salary (default)
  deep      heavy model for every section

With --stream each section is printed as a JSON line as soon as it finishes.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	reportCmd.Flags().String("jd", "", "Job description file (enables the ATS section)")
	reportCmd.Flags().String("mode", "", "Report mode: fast, balanced, deep")
	reportCmd.Flags().String("target-role", "", "Target role for the report")
	reportCmd.Flags().String("location", "", "Candidate location")
	reportCmd.Flags().String("industry", "", "Candidate industry")
	reportCmd.Flags().StringP("format", "f", "", "Output format: json, text, markdown")
	reportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	reportCmd.Flags().Bool("stream", false, "Print section events as JSON lines while the report runs")
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.App.DefaultFormat
		if err := cmd.Flags().Set("format", format); err != nil {
			return err
		}
	}
	if err := common.ValidateOutputFormat(format, cfg.App.SupportedFormats); err != nil {
		return err
	}

	mode, _ := cmd.Flags().GetString("mode")
	_, err = common.ValidateMode(mode)
	return err
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := contextDeps(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	jdFile, _ := cmd.Flags().GetString("jd")
	mode, _ := cmd.Flags().GetString("mode")
	targetRole, _ := cmd.Flags().GetString("target-role")
	location, _ := cmd.Flags().GetString("location")
	industry, _ := cmd.Flags().GetString("industry")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	stream, _ := cmd.Flags().GetBool("stream")

	fp := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	resumeText, err := fp.ReadDocument(args[0])
	if err != nil {
		return err
	}
	var jdText string
	if jdFile != "" {
		if jdText, err = fp.ReadDocument(jdFile); err != nil {
			return err
		}
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

	req := types.ReportRequest{
		ResumeText:     resumeText,
		JobDescription: jdText,
		TargetRole:     targetRole,
		Location:       location,
		Industry:       industry,
		Mode:           types.Mode(mode),
	}

	if stream {
		return streamReport(cmd, pipeline, req)
	}

	rep, err := pipeline.Orchestrator.Generate(ctx, req)
	if err != nil {
		return err
	}

	return common.NewOutputHandler(logger, cmd.OutOrStdout()).HandleOutput(rep, common.CommandConfig{
		OutputFile:   output,
		OutputFormat: format,
	})
}

// streamReport writes one JSON object per section event. Keep-alives are
// only meaningful to HTTP clients and are dropped.
func streamReport(cmd *cobra.Command, pipeline *common.Pipeline, req types.ReportRequest) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	events, err := pipeline.Orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	var writeErr error
	for ev := range events {
		if ev.Type == types.EventKeepAlive || writeErr != nil {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			writeErr = fmt.Errorf("failed to write event: %w", err)
			cancel()
		}
	}
	if writeErr != nil {
		return writeErr
	}
	return cmd.Context().Err()
}
