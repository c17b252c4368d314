package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills derived values that defaults alone cannot express
func (c *Config) applyFallbacks() {
	c.applyAIDefaults()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyAIDefaults normalises provider settings and fills the heavy tier
func (c *Config) applyAIDefaults() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.AI.BaseURL = strings.TrimRight(strings.TrimSpace(c.AI.BaseURL), "/")
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)

	if c.AI.Models.Light == "" && c.AI.Provider == ProviderGemini {
		c.AI.Models.Light = "gemini-2.0-flash"
	}
	if c.AI.Models.Heavy == "" {
		c.AI.Models.Heavy = c.AI.Models.Light
	}
	if c.AI.SystemPrompt == "" {
		c.AI.SystemPrompt = DefaultSystemPrompt
	}
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}

	// Set console output based on log level if not explicitly configured
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"NEUROMATCH_AI_APIKEY",
		"NEUROMATCH_AI_PROVIDER",
		"NEUROMATCH_AI_BASEURL",
		"NEUROMATCH_SERVER_PORT",
		"NEUROMATCH_SERVER_HOST",
		"NEUROMATCH_APP_LOGLEVEL",
		"NEUROMATCH_REPORT_DEFAULTMODE",
		"NEUROMATCH_VAULT_ENABLED",
		"DEEPSEEK_API_KEY", // Legacy support
		"GEMINI_API_KEY",   // Legacy support
		"OPENAI_BASE_URL",  // Legacy support
		"MODEL_NAME",       // Legacy support
		"JOOBLE_API_KEY",   // Legacy support
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Base URL: %s", c.AI.BaseURL)
	log.Printf("[CONFIG] AI Models: light=%s heavy=%s", c.AI.Models.Light, c.AI.Models.Heavy)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	if c.JobSearch.JoobleKey != "" {
		log.Println("[CONFIG] Jooble API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Jooble API Key: ***NOT SET*** (falling back to Arbeitnow)")
	}
	log.Printf("[CONFIG] Report Mode: %s, Section Timeout: %s, Cache Size: %d",
		c.Report.DefaultMode, c.Report.SectionTimeout, c.Report.CacheSize)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
