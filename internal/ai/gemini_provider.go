package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	logger *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(ctx context.Context, cfg *config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		logger: logger,
	}, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// Complete sends one GenerateContent call
func (g *GeminiProvider) Complete(ctx context.Context, model string, req GenerationRequest) (*Generation, error) {
	tracer := otel.Tracer("neuromatch.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", model),
		attribute.String("report.section", req.Section),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("ai.max_output_tokens", req.MaxOutputTokens),
	)

	system, contents := geminiContents(req.Messages)
	genaiConfig := &genai.GenerateContentConfig{}
	if req.JSON {
		genaiConfig.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		genaiConfig.Temperature = &temperature
	}
	if req.MaxOutputTokens > 0 {
		genaiConfig.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if system != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, model, contents, genaiConfig)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, classifyGeminiError(err, model)
	}

	if result == nil || len(result.Candidates) == 0 {
		err := malformedEnvelopeError("gemini", model, promptFeedback(result), nil)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	gen := &Generation{
		Text:     result.Text(),
		Model:    model,
		Usage:    extractTokenUsage(result),
		Duration: time.Since(start),
	}
	if gen.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", gen.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", gen.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", gen.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return gen, nil
}

// DescribeModel checks the readiness and availability of a model
func (g *GeminiProvider) DescribeModel(ctx context.Context, model string) *ModelInfo {
	info := &ModelInfo{
		Provider: config.ProviderGemini,
		Name:     model,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	m, err := g.client.Models.Get(checkCtx, model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", model,
			"provider", config.ProviderGemini,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = m.DisplayName
	info.Version = m.Version
	g.logger.Debug("Model availability check successful",
		"model", model,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	return nil
}

// geminiContents splits system messages into a single instruction and maps
// the rest onto Gemini roles
func geminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// classifyGeminiError maps API errors carrying an HTTP status onto
// AI_BAD_STATUS and leaves everything else as a service failure
func classifyGeminiError(err error, model string) error {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return badStatusError("gemini", model, apiErr.Code, apiErr.Message)
	}

	var gErr *googleapi.Error
	if stderrors.As(err, &gErr) {
		return badStatusError("gemini", model, gErr.Code, gErr.Message)
	}

	return errors.NewAIError(errors.ErrCodeAIServiceFailed,
		"Failed to generate content", err).
		WithContext("model", model)
}

func promptFeedback(result *genai.GenerateContentResponse) string {
	if result == nil || result.PromptFeedback == nil {
		return "no candidates"
	}
	return fmt.Sprintf("no candidates, block reason %s", result.PromptFeedback.BlockReason)
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
