package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyGeminiKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks reads SKILLMATCH_SERVER_APIKEYS when the config
// carries no keys. Viper cannot split a comma list into a slice on its own.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) > 0 {
		return
	}
	raw := os.Getenv("SKILLMATCH_SERVER_APIKEYS")
	if raw == "" {
		return
	}
	for _, key := range strings.Split(raw, ",") {
		c.Server.APIKeys = append(c.Server.APIKeys, strings.TrimSpace(key))
	}
}

// applyGeminiKeyFallbacks supports the conventional GEMINI_API_KEY variable
func (c *Config) applyGeminiKeyFallbacks() {
	if c.Extract.Gemini.APIKey == "" {
		c.Extract.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
	// Surface console output when debugging
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func serviceInstanceID(serviceName string) string {
	hostname, err := os.Hostname()
	if err != nil {
		return serviceName + "-1"
	}
	return serviceName + "-" + hostname
}

// logConfigurationSources prints where the effective configuration came from
// and a masked summary of the key values.
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed == "" {
		log.Println("[CONFIG] Config file: None (using defaults)")
	} else {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	}

	log.Println("[CONFIG] Environment variables:")
	watched := []string{
		"SKILLMATCH_EXTRACT_PROVIDER",
		"SKILLMATCH_EXTRACT_TAXONOMYPATH",
		"SKILLMATCH_EXTRACT_GEMINI_APIKEY",
		"SKILLMATCH_EXTRACT_GEMINI_MODEL",
		"SKILLMATCH_SERVER_PORT",
		"SKILLMATCH_SERVER_HOST",
		"SKILLMATCH_APP_LOGLEVEL",
		"SKILLMATCH_APP_DATABASEPATH",
		"SKILLMATCH_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}
	seen := 0
	for _, name := range watched {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		seen++
		if strings.Contains(strings.ToLower(name), "key") {
			log.Printf("[CONFIG]   %s=***MASKED***", name)
		} else {
			log.Printf("[CONFIG]   %s=%s", name, value)
		}
	}
	if seen == 0 {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	summary := []struct {
		label string
		value any
	}{
		{"Extract Provider", c.Extract.Provider},
		{"Taxonomy Path", c.Extract.TaxonomyPath},
		{"Matching Weights", fmt.Sprintf("required=%.2f bonus=%.2f", c.Matching.RequiredWeight, c.Matching.BonusWeight)},
		{"Server Host", c.Server.Host},
		{"Server Port", c.Server.Port},
		{"Log Level", c.App.LogLevel},
		{"TLS Mode", c.Server.TLS.Mode},
		{"Database Path", c.App.DatabasePath},
		{"Vault Enabled", c.Vault.Enabled},
		{"Observability Enabled", c.Observability.Enabled},
	}
	for _, entry := range summary {
		log.Printf("[CONFIG] %s: %v", entry.label, entry.value)
	}
	if c.Extract.Provider == "gemini" {
		log.Printf("[CONFIG] Gemini Model: %s", c.Extract.Gemini.Model)
		if c.Extract.Gemini.APIKey == "" {
			log.Println("[CONFIG] Gemini API Key: ***NOT SET***")
		} else {
			log.Println("[CONFIG] Gemini API Key: ***CONFIGURED***")
		}
	}

	log.Println("[CONFIG] =====================================")
}
