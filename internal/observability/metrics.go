package observability

import (
	"context"
	"fmt"
	"time"

	"neuromatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Metrics holds the custom instruments for report generation
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Report pipeline metrics
	SectionDuration metric.Float64Histogram
	SectionCount    metric.Int64Counter
	CacheLookups    metric.Int64Counter
	ReportsFinished metric.Int64Counter
	ReportDuration  metric.Float64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"neuromatch_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in generation calls"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AIRequestCount, err = meter.Int64Counter(
		"neuromatch_ai_requests_total",
		metric.WithDescription("Total number of generation calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if m.AIErrorCount, err = meter.Int64Counter(
		"neuromatch_ai_errors_total",
		metric.WithDescription("Total number of failed generation calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"neuromatch_ai_token_usage",
		metric.WithDescription("Token usage per generation call"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.SectionDuration, err = meter.Float64Histogram(
		"neuromatch_section_duration_seconds",
		metric.WithDescription("Time from dispatch to outcome for a report section"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create section duration metric: %w", err)
	}

	if m.SectionCount, err = meter.Int64Counter(
		"neuromatch_sections_total",
		metric.WithDescription("Report sections by outcome status"),
	); err != nil {
		return nil, fmt.Errorf("failed to create section count metric: %w", err)
	}

	if m.CacheLookups, err = meter.Int64Counter(
		"neuromatch_cache_lookups_total",
		metric.WithDescription("Section result cache lookups"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache lookup metric: %w", err)
	}

	if m.ReportsFinished, err = meter.Int64Counter(
		"neuromatch_reports_total",
		metric.WithDescription("Completed report runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reports metric: %w", err)
	}

	if m.ReportDuration, err = meter.Float64Histogram(
		"neuromatch_report_duration_seconds",
		metric.WithDescription("Wall time of a report run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create report duration metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"neuromatch_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordGeneration records one generation call and annotates the active span
func (om *ObservabilityManager) RecordGeneration(ctx context.Context, section, model string, duration time.Duration, inputTokens, outputTokens int64, err error) {
	span := oteltrace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("ai.section", section),
		attribute.String("ai.model", model),
		attribute.Int64("ai.tokens.input", inputTokens),
		attribute.Int64("ai.tokens.output", outputTokens),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
	}

	if om.metrics == nil || !om.aiMetricsEnabled() {
		return
	}
	ai := om.fullConfigAI()

	attrs := metric.WithAttributes(
		attribute.String("section", section),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	)

	if ai.trackDuration {
		om.metrics.AIProcessingTime.Record(ctx, duration.Seconds(), attrs)
	}
	om.metrics.AIRequestCount.Add(ctx, 1, attrs)
	if err != nil {
		om.metrics.AIErrorCount.Add(ctx, 1, attrs)
	}

	if ai.trackTokens {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", inputTokens},
			{"output", outputTokens},
			{"total", inputTokens + outputTokens},
		} {
			om.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
				attribute.String("model", model),
				attribute.String("token_type", tt.tokenType),
			))
		}
	}
}

// SectionFinished records the outcome of one report section
func (om *ObservabilityManager) SectionFinished(ctx context.Context, section string, phase int, status types.SectionStatus, elapsed time.Duration) {
	if om.metrics == nil || !om.reportMetricsEnabled() {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Report.TrackSections {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("section", section),
		attribute.Int("phase", phase),
		attribute.String("status", string(status)),
	)
	om.metrics.SectionCount.Add(ctx, 1, attrs)
	om.metrics.SectionDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// CacheLookup records a section cache hit or miss
func (om *ObservabilityManager) CacheLookup(ctx context.Context, section string, hit bool) {
	if om.metrics == nil || !om.reportMetricsEnabled() {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Report.TrackCache {
		return
	}
	om.metrics.CacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("section", section),
		attribute.Bool("hit", hit),
	))
}

// RunFinished records a completed report run
func (om *ObservabilityManager) RunFinished(ctx context.Context, mode types.Mode, summary types.Completion) {
	if om.metrics == nil || !om.reportMetricsEnabled() {
		return
	}
	outcome := "complete"
	switch {
	case summary.Failed > 0 && summary.Succeeded == 0 && summary.Degraded == 0:
		outcome = "failed"
	case summary.Failed > 0 || summary.Degraded > 0:
		outcome = "partial"
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("outcome", outcome),
	)
	om.metrics.ReportsFinished.Add(ctx, 1, attrs)
	om.metrics.ReportDuration.Record(ctx, float64(summary.ElapsedMS)/1000, attrs)
}

// RecordRateLimitHit counts a request rejected by the rate limiter
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, path string) {
	if om.metrics == nil {
		return
	}
	if om.fullConfig != nil {
		infra := om.fullConfig.Observability.CustomMetrics.Infrastructure
		if !infra.Enabled || !infra.TrackRateLimits {
			return
		}
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

type aiTracking struct {
	trackDuration bool
	trackTokens   bool
}

func (om *ObservabilityManager) fullConfigAI() aiTracking {
	if om.fullConfig == nil {
		return aiTracking{trackDuration: true, trackTokens: true}
	}
	ai := om.fullConfig.Observability.CustomMetrics.AIOperations
	return aiTracking{trackDuration: ai.TrackDuration, trackTokens: ai.TrackTokenUsage}
}

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	return om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

func (om *ObservabilityManager) reportMetricsEnabled() bool {
	return om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.Report.Enabled
}
