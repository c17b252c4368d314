package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (NEUROMATCH_AI_APIKEY, then DEEPSEEK_API_KEY / GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Report        ReportConfig        `mapstructure:"report"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	JobSearch     JobSearchConfig     `mapstructure:"jobSearch"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds generation service configuration
type AIConfig struct {
	Provider         string               `mapstructure:"provider"` // "openai" (any OpenAI-compatible endpoint) or "gemini"
	APIKey           string               `mapstructure:"apiKey"`
	BaseURL          string               `mapstructure:"baseURL"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	Temperature      float32              `mapstructure:"temperature"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	SystemPrompt     string               `mapstructure:"systemPrompt"`
	Models           ModelTiersConfig     `mapstructure:"models"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ModelTiersConfig maps the light and heavy tiers to concrete model names
type ModelTiersConfig struct {
	Light string `mapstructure:"light"`
	Heavy string `mapstructure:"heavy"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ReportConfig holds career report pipeline configuration
type ReportConfig struct {
	DefaultMode            string           `mapstructure:"defaultMode"`
	SectionTimeout         time.Duration    `mapstructure:"sectionTimeout"`
	KeepAliveInterval      time.Duration    `mapstructure:"keepAliveInterval"`
	MinResumeChars         int              `mapstructure:"minResumeChars"`
	MaxResumeChars         int              `mapstructure:"maxResumeChars"`
	MaxJobDescriptionChars int              `mapstructure:"maxJobDescriptionChars"`
	MaxFieldChars          int              `mapstructure:"maxFieldChars"`
	CacheSize              int              `mapstructure:"cacheSize"`
	PromptsDir             string           `mapstructure:"promptsDir"`
	WatchPrompts           bool             `mapstructure:"watchPrompts"`
	PromptDebounce         time.Duration    `mapstructure:"promptDebounce"`
	Budgets                BudgetsConfig    `mapstructure:"budgets"`
	Thresholds             ThresholdsConfig `mapstructure:"thresholds"`
}

// BudgetsConfig holds max output tokens per section for each mode
type BudgetsConfig struct {
	Fast     int `mapstructure:"fast"`
	Balanced int `mapstructure:"balanced"`
	Deep     int `mapstructure:"deep"`
}

// ThresholdsConfig tunes the deterministic pre-analysis. The field set
// mirrors preanalysis.Thresholds so the two convert directly.
type ThresholdsConfig struct {
	RecentWindowYears  int `mapstructure:"recentWindowYears"`
	JobHopMinRecent    int `mapstructure:"jobHopMinRecent"`
	StabilityMinTenure int `mapstructure:"stabilityMinTenure"`
	StabilityMaxRecent int `mapstructure:"stabilityMaxRecent"`
	StabilityMaxRanges int `mapstructure:"stabilityMaxRanges"`
	StabilitySpanYears int `mapstructure:"stabilitySpanYears"`
	MiddleTenureYears  int `mapstructure:"middleTenureYears"`
	MaxTenureSpan      int `mapstructure:"maxTenureSpan"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	MaxRequestSize  int64         `mapstructure:"maxRequestSize"`
	APIKeys         []string      `mapstructure:"apiKeys"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Mode       string `mapstructure:"mode"`       // TLS mode: "disabled", "server"
	CertFile   string `mapstructure:"certFile"`   // Server certificate file (PEM)
	KeyFile    string `mapstructure:"keyFile"`    // Server private key file (PEM)
	MinVersion string `mapstructure:"minVersion"` // Minimum TLS version: "1.2", "1.3"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// JobSearchConfig holds job board configuration
type JobSearchConfig struct {
	JoobleKey      string        `mapstructure:"joobleKey"`
	JoobleEndpoint string        `mapstructure:"joobleEndpoint"`
	ArbeitnowURL   string        `mapstructure:"arbeitnowURL"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DefaultLimit   int           `mapstructure:"defaultLimit"`
	MaxDescChars   int           `mapstructure:"maxDescChars"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations   AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	Report         ReportMetricsConfig         `mapstructure:"report"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// ReportMetricsConfig holds report pipeline metrics configuration
type ReportMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackSections bool `mapstructure:"trackSections"`
	TrackCache    bool `mapstructure:"trackCache"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	return load(viper.New(), true)
}

func load(v *viper.Viper, searchFiles bool) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("NEUROMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)
	log.Println("[CONFIG] Configured environment variable handling with prefix 'NEUROMATCH'")

	configFileUsed := ""
	if searchFiles {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/neuromatch/")
		v.AddConfigPath("$HOME/.neuromatch")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/neuromatch/, $HOME/.neuromatch, .")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Println("[CONFIG] No config file found, using defaults and environment variables")
		} else {
			configFileUsed = v.ConfigFileUsed()
			log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. A missing AI key is not an
// error here; commands that never call the generation service run without one.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported AI provider: %s (must be '%s' or '%s')", c.AI.Provider, ProviderOpenAI, ProviderGemini)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.AI.Provider == ProviderOpenAI && c.AI.BaseURL == "" {
		return fmt.Errorf("AI base URL is required for the %s provider", ProviderOpenAI)
	}

	if err := c.validateReport(); err != nil {
		return err
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func (c *Config) validateReport() error {
	r := c.Report

	switch r.DefaultMode {
	case "fast", "balanced", "deep":
	default:
		return fmt.Errorf("invalid report defaultMode: %s (must be 'fast', 'balanced' or 'deep')", r.DefaultMode)
	}

	if r.SectionTimeout <= 0 {
		return fmt.Errorf("report sectionTimeout must be positive")
	}
	if r.MinResumeChars < 0 {
		return fmt.Errorf("report minResumeChars cannot be negative")
	}
	if r.MaxResumeChars > 0 && r.MaxResumeChars < r.MinResumeChars {
		return fmt.Errorf("report maxResumeChars (%d) is below minResumeChars (%d)", r.MaxResumeChars, r.MinResumeChars)
	}

	return nil
}
