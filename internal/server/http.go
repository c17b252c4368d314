package server

import (
	"context"
	"time"

	"neuromatch/internal/cache"
	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/observability"
	"neuromatch/internal/types"
)

// ReportRunner produces the event stream for one report
type ReportRunner interface {
	Run(ctx context.Context, req types.ReportRequest) (<-chan types.Event, error)
}

// JobSearcher finds and ranks postings
type JobSearcher interface {
	Search(ctx context.Context, req types.JobSearchRequest) ([]types.Job, error)
}

// GeneratorStatus exposes generation backend health
type GeneratorStatus interface {
	Stats() map[string]any
	Healthy() bool
}

// Dependencies are the pipeline components the handlers call into
type Dependencies struct {
	Reports       ReportRunner
	Jobs          JobSearcher
	Generator     GeneratorStatus
	Cache         *cache.ResultCache
	Observability *observability.ObservabilityManager
}

// ExportRequest is the body of POST /export
type ExportRequest struct {
	Report *types.Report `json:"report"`
	Format string        `json:"format"`
}

// ExtractResponse is the body returned by POST /extract
type ExtractResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Chars    int    `json:"chars"`
}

// JobSearchResponse is the body returned by POST /jobs/search
type JobSearchResponse struct {
	Jobs []types.Job `json:"jobs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MaxRequestSize int64
	MaxUploadSize  int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps   Dependencies
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host            string
	Port            string
	Version         string
	TLSConfig       config.TLSConfig
	APIKeys         []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	MaxUploadSize   int64
	RateLimit       *config.RateLimitConfig
}

// ServerConfigFrom maps the loaded configuration onto ServerConfig
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	rl := cfg.Server.RateLimit
	return ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         version,
		TLSConfig:       cfg.Server.TLS,
		APIKeys:         cfg.Server.APIKeys,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxRequestSize:  cfg.Server.MaxRequestSize,
		MaxUploadSize:   cfg.App.MaxFileSize,
		RateLimit:       &rl,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	if deps.Observability == nil {
		deps.Observability, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         cfg.Version,
		AppConfig:       appCfg,
		TLSConfig:       cfg.TLSConfig,
		APIKeys:         apiKeyMap,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: shutdownTimeout,
		MaxRequestSize:  cfg.MaxRequestSize,
		MaxUploadSize:   cfg.MaxUploadSize,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		deps:            deps,
		Logger:          logger,
	}
}
