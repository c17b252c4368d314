package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
)

const maxResponseBytes = 4 << 20

// OpenAIProvider implements Provider for any endpoint speaking the OpenAI
// chat completions protocol, DeepSeek included
type OpenAIProvider struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *errors.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider for cfg.BaseURL. Deadlines come from
// the caller's context, the client itself has no timeout.
func NewOpenAIProvider(cfg *config.AIConfig, logger *errors.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		endpoint:   chatCompletionsURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// chatCompletionsURL accepts base URLs with or without the /v1 suffix
func chatCompletionsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// Name implements Provider
func (o *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Complete posts one chat completion request
func (o *OpenAIProvider) Complete(ctx context.Context, model string, req GenerationRequest) (*Generation, error) {
	tracer := otel.Tracer("neuromatch.ai.openai")
	ctx, span := tracer.Start(ctx, "openai.chat_completion")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
		attribute.String("report.section", req.Section),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("ai.max_output_tokens", req.MaxOutputTokens),
	)

	payload := chatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	}
	if req.JSON {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to encode chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	start := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Chat completion request failed", err).
			WithContext("model", model)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to read chat completion response", err).
			WithContext("model", model)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		err := badStatusError("openai", model, resp.StatusCode, string(raw))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	gen, err := parseChatCompletion(raw, model)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}
	gen.Duration = time.Since(start)

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

// parseChatCompletion reads choices[0].message.content and usage from a
// 200 response body. An empty content string is a valid, empty generation.
func parseChatCompletion(raw []byte, model string) (*Generation, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformedEnvelopeError("openai", model, string(raw), fmt.Errorf("response is not valid JSON"))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		return nil, malformedEnvelopeError("openai", model, string(raw), fmt.Errorf("missing choices[0].message.content"))
	}

	gen := &Generation{Text: content.String(), Model: model}
	if served := gjson.GetBytes(raw, "model"); served.Exists() && served.String() != "" {
		gen.Model = served.String()
	}
	if usage := gjson.GetBytes(raw, "usage"); usage.Exists() {
		gen.Usage = &TokenUsage{
			InputTokens:  usage.Get("prompt_tokens").Int(),
			OutputTokens: usage.Get("completion_tokens").Int(),
			TotalTokens:  usage.Get("total_tokens").Int(),
		}
	}
	return gen, nil
}

// DescribeModel queries GET /v1/models/{model}. Endpoints that do not
// expose the models API report the model as unavailable with the status.
func (o *OpenAIProvider) DescribeModel(ctx context.Context, model string) *ModelInfo {
	info := &ModelInfo{
		Provider: config.ProviderOpenAI,
		Name:     model,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	url := strings.TrimSuffix(o.endpoint, "/chat/completions") + "/models/" + model
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		o.logger.Warn("Model availability check failed",
			"model", model,
			"provider", config.ProviderOpenAI,
			"error", err.Error())
		return info
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		info.Error = fmt.Sprintf("models endpoint returned HTTP %d", resp.StatusCode)
		return info
	}

	info.Available = true
	if owner := gjson.GetBytes(raw, "owned_by"); owner.Exists() {
		info.DisplayName = model + " (" + owner.String() + ")"
	}
	return info
}

// Close implements Provider
func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
