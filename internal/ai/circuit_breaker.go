package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
)

// GenerationBreaker wraps provider calls with the circuit breaker pattern.
// A nil breaker passes calls straight through.
type GenerationBreaker struct {
	cb *gobreaker.CircuitBreaker[*Generation]
}

// NewGenerationBreaker creates a breaker for one provider, or nil when
// breaking is disabled
func NewGenerationBreaker(providerName string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *GenerationBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", providerName),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// Cancellation by the caller says nothing about the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"provider", providerName,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &GenerationBreaker{
		cb: gobreaker.NewCircuitBreaker[*Generation](settings),
	}
}

// Execute runs fn under breaker protection. Rejections while open or
// half-open surface as AI_CIRCUIT_OPEN.
func (b *GenerationBreaker) Execute(fn func() (*Generation, error)) (*Generation, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	gen, err := b.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewAIError(errors.ErrCodeAICircuitOpen,
			"Generation service temporarily unavailable", err).
			WithContext("breaker", b.cb.Name())
	}
	return gen, err
}

// GetStats returns circuit breaker statistics
func (b *GenerationBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *GenerationBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
