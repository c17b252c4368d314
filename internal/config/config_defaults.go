package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultSystemPrompt = "You are a professional résumé and career advisor. Respond with a single JSON object only, no extra text."
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseURL", "https://api.deepseek.com")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.systemPrompt", DefaultSystemPrompt)
	v.SetDefault("ai.models.light", "deepseek-chat")
	v.SetDefault("ai.models.heavy", "")

	// Circuit Breaker Configuration
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 5)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Report Configuration
	v.SetDefault("report.defaultMode", "balanced")
	v.SetDefault("report.sectionTimeout", 45*time.Second)
	v.SetDefault("report.keepAliveInterval", 10*time.Second)
	v.SetDefault("report.minResumeChars", 50)
	v.SetDefault("report.maxResumeChars", 4000)
	v.SetDefault("report.maxJobDescriptionChars", 4000)
	v.SetDefault("report.maxFieldChars", 200)
	v.SetDefault("report.cacheSize", 256)
	v.SetDefault("report.promptsDir", "")
	v.SetDefault("report.watchPrompts", false)
	v.SetDefault("report.promptDebounce", time.Second)
	v.SetDefault("report.budgets.fast", 900)
	v.SetDefault("report.budgets.balanced", 1400)
	v.SetDefault("report.budgets.deep", 2200)
	v.SetDefault("report.thresholds.recentWindowYears", 5)
	v.SetDefault("report.thresholds.jobHopMinRecent", 3)
	v.SetDefault("report.thresholds.stabilityMinTenure", 3)
	v.SetDefault("report.thresholds.stabilityMaxRecent", 1)
	v.SetDefault("report.thresholds.stabilityMaxRanges", 2)
	v.SetDefault("report.thresholds.stabilitySpanYears", 6)
	v.SetDefault("report.thresholds.middleTenureYears", 3)
	v.SetDefault("report.thresholds.maxTenureSpan", 40)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Minute) // streamed reports outlive a normal response
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.maxRequestSize", 2*1024*1024)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 30)
	v.SetDefault("server.rateLimit.burstCapacity", 5)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.jobSearchKey", "")

	// Job Search Configuration
	v.SetDefault("jobSearch.joobleKey", "")
	v.SetDefault("jobSearch.joobleEndpoint", "https://jooble.org/api/")
	v.SetDefault("jobSearch.arbeitnowURL", "https://www.arbeitnow.com/api/job-board-api")
	v.SetDefault("jobSearch.timeout", 20*time.Second)
	v.SetDefault("jobSearch.defaultLimit", 10)
	v.SetDefault("jobSearch.maxDescChars", 500)

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "neuromatch")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.report.enabled", true)
	v.SetDefault("observability.customMetrics.report.trackSections", true)
	v.SetDefault("observability.customMetrics.report.trackCache", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// bindLegacyEnv keeps the environment variable names of earlier deployments
// working. The prefixed name always wins when both are set.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("ai.apiKey", "NEUROMATCH_AI_APIKEY", "DEEPSEEK_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("ai.baseURL", "NEUROMATCH_AI_BASEURL", "OPENAI_BASE_URL")
	_ = v.BindEnv("ai.models.light", "NEUROMATCH_AI_MODELS_LIGHT", "MODEL_NAME")
	_ = v.BindEnv("jobSearch.joobleKey", "NEUROMATCH_JOBSEARCH_JOOBLEKEY", "JOOBLE_API_KEY")
}
