package ai

import (
	"context"
	"time"
)

// Role tags a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ModelTier selects between the configured light and heavy models
type ModelTier string

const (
	TierLight ModelTier = "light"
	TierHeavy ModelTier = "heavy"
)

// Message is one role-tagged prompt message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest describes a single call to the generation service.
// Requests are built once and never modified afterwards.
type GenerationRequest struct {
	Section         string
	Messages        []Message
	Tier            ModelTier
	MaxOutputTokens int
	Temperature     float32
	JSON            bool
}

// Generation is the text returned by one successful call
type Generation struct {
	Text     string
	Model    string
	Usage    *TokenUsage
	Duration time.Duration
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Generator is the boundary used by report sections. Implementations
// apply one fixed timeout per call and never retry.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*Generation, error)
	ModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Provider performs the wire call against a concrete backend for an
// already resolved model name.
type Provider interface {
	Name() string
	Complete(ctx context.Context, model string, req GenerationRequest) (*Generation, error)
	DescribeModel(ctx context.Context, model string) *ModelInfo
	Close() error
}

// Recorder receives one observation per finished generation call
type Recorder interface {
	RecordGeneration(ctx context.Context, section, model string, duration time.Duration, inputTokens, outputTokens int64, err error)
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Provider    string `json:"provider"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
