package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
)

// Client is the Generator used by the report pipeline. Every call gets
// the same fixed timeout, passes through the circuit breaker once and is
// never retried.
type Client struct {
	provider  Provider
	breaker   *GenerationBreaker
	models    config.ModelTiersConfig
	timeout   time.Duration
	useSystem bool
	recorder  Recorder
	logger    *errors.Logger
}

var _ Generator = (*Client)(nil)

// ClientOption customises a Client
type ClientOption func(*Client)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithBreaker overrides the breaker built from configuration
func WithBreaker(b *GenerationBreaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient wraps an existing provider
func NewClient(provider Provider, cfg *config.AIConfig, logger *errors.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider:  provider,
		breaker:   NewGenerationBreaker(provider.Name(), cfg.CircuitBreaker, logger),
		models:    cfg.Models,
		timeout:   cfg.Timeout,
		useSystem: cfg.UseSystemPrompts,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	return c
}

// NewGenerator builds the configured provider and wraps it in a Client.
// An API key is required here rather than at config load so that commands
// which never generate can run without one.
func NewGenerator(ctx context.Context, cfg *config.AIConfig, logger *errors.Logger, opts ...ClientOption) (*Client, error) {
	logger.Debug("Initializing generation client",
		"provider", cfg.Provider,
		"light_model", cfg.Models.Light,
		"heavy_model", cfg.Models.Heavy,
		"timeout", cfg.Timeout,
		"use_system_prompts", cfg.UseSystemPrompts)

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"AI API key is not configured (set NEUROMATCH_AI_APIKEY or DEEPSEEK_API_KEY)", nil)
	}

	var provider Provider
	switch cfg.Provider {
	case config.ProviderOpenAI:
		provider = NewOpenAIProvider(cfg, logger)
	case config.ProviderGemini:
		gemini, err := NewGeminiProvider(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	return NewClient(provider, cfg, logger, opts...), nil
}

// Generate performs one generation call
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*Generation, error) {
	if len(req.Messages) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"generation request has no messages", nil)
	}

	model := c.modelFor(req.Tier)
	req.Messages = c.prepareMessages(req.Messages)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	gen, err := c.breaker.Execute(func() (*Generation, error) {
		return c.provider.Complete(callCtx, model, req)
	})
	duration := time.Since(start)

	if err != nil {
		err = c.classify(ctx, callCtx, err, model)
	}
	c.record(ctx, req.Section, model, duration, gen, err)

	if err != nil {
		c.logger.LogError(err, "Generation failed",
			"section", req.Section,
			"model", model,
			"elapsed_ms", duration.Milliseconds())
		return nil, err
	}

	if gen.Duration == 0 {
		gen.Duration = duration
	}
	c.logger.Debug("Generation completed",
		"section", req.Section,
		"model", gen.Model,
		"elapsed_ms", duration.Milliseconds(),
		"chars", len(gen.Text))
	return gen, nil
}

// modelFor maps a tier to a configured model name
func (c *Client) modelFor(tier ModelTier) string {
	if tier == TierHeavy && c.models.Heavy != "" {
		return c.models.Heavy
	}
	return c.models.Light
}

// prepareMessages folds system messages into the first user message when
// system prompts are disabled
func (c *Client) prepareMessages(messages []Message) []Message {
	if c.useSystem {
		return messages
	}

	var system []string
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		out = append(out, m)
	}
	if len(system) == 0 {
		return messages
	}

	prefix := strings.Join(system, "\n\n")
	for i := range out {
		if out[i].Role == RoleUser {
			out[i].Content = prefix + "\n\n" + out[i].Content
			return out
		}
	}
	return append([]Message{{Role: RoleUser, Content: prefix}}, out...)
}

// classify turns context failures into timeout or cancellation errors and
// leaves already classified errors alone
func (c *Client) classify(parent, callCtx context.Context, err error, model string) error {
	if code := errors.CodeOf(err); code == errors.ErrCodeAIBadStatus ||
		code == errors.ErrCodeAIMalformed || code == errors.ErrCodeAICircuitOpen {
		return err
	}

	switch {
	case stderrors.Is(parent.Err(), context.Canceled):
		return errors.NewAIError(errors.ErrCodeSectionCancelled, "generation cancelled", err).
			WithContext("model", model)
	case parent.Err() != nil || stderrors.Is(callCtx.Err(), context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, "generation timed out", err).
			WithContext("model", model).
			WithContext("timeout", c.timeout.String())
	}
	return err
}

func (c *Client) record(ctx context.Context, section, model string, duration time.Duration, gen *Generation, err error) {
	if c.recorder == nil {
		return
	}
	var in, out int64
	if gen != nil && gen.Usage != nil {
		in, out = gen.Usage.InputTokens, gen.Usage.OutputTokens
	}
	c.recorder.RecordGeneration(ctx, section, model, duration, in, out, err)
}

// ModelInfo returns information about the light model for health checks
func (c *Client) ModelInfo(ctx context.Context) *ModelInfo {
	return c.provider.DescribeModel(ctx, c.models.Light)
}

// Stats reports provider, model and breaker state
func (c *Client) Stats() map[string]any {
	return map[string]any{
		"provider": c.provider.Name(),
		"models": map[string]string{
			"light": c.models.Light,
			"heavy": c.modelFor(TierHeavy),
		},
		"timeout": c.timeout.String(),
		"breaker": c.breaker.GetStats(),
		"healthy": c.breaker.IsHealthy(),
	}
}

// Healthy reports whether the breaker currently admits calls
func (c *Client) Healthy() bool {
	return c.breaker.IsHealthy()
}

// Close releases provider resources
func (c *Client) Close() error {
	return c.provider.Close()
}
