package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
//
// Secrets resolve in precedence order: Vault (when enabled), config file,
// environment variables (SKILLMATCH_EXTRACT_GEMINI_APIKEY and friends),
// then built-in defaults.
type Config struct {
	Matching      MatchingConfig      `mapstructure:"matching"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// MatchingConfig holds the scoring policy
type MatchingConfig struct {
	RequiredWeight     float64           `mapstructure:"requiredWeight"`     // Weight of required-skill coverage
	BonusWeight        float64           `mapstructure:"bonusWeight"`        // Weight of optional-skill coverage
	DefaultProficiency int               `mapstructure:"defaultProficiency"` // Proficiency assumed when unknown (0-100)
	Aliases            map[string]string `mapstructure:"aliases"`            // Skill synonym table ("js" -> "javascript")
}

// ExtractConfig holds skill extraction configuration
type ExtractConfig struct {
	Provider      string        `mapstructure:"provider"`      // "keyword" or "gemini"
	TaxonomyPath  string        `mapstructure:"taxonomyPath"`  // Path to skill taxonomy JSON (empty = built-in seed)
	WatchTaxonomy bool          `mapstructure:"watchTaxonomy"` // Reload the taxonomy when the file changes
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce delay for taxonomy change events
	Gemini        GeminiConfig  `mapstructure:"gemini"`
}

// GeminiConfig holds configuration for the Gemini-backed extractor
type GeminiConfig struct {
	Model            string               `mapstructure:"model"`
	APIKey           string               `mapstructure:"apiKey"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	MaxRetries       int                  `mapstructure:"maxRetries"`
	Temperature      float32              `mapstructure:"temperature"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	SystemPrompt     string               `mapstructure:"systemPrompt"`     // Override for the built-in system prompt
	UserPrompt       string               `mapstructure:"userPrompt"`       // Override for the built-in user prompt template
	SystemPromptFile string               `mapstructure:"systemPromptFile"` // Load the system prompt override from a file
	UserPromptFile   string               `mapstructure:"userPromptFile"`   // Load the user prompt override from a file
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig guards the Gemini provider against a failing upstream
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // How long the breaker stays open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	DatabasePath     string   `mapstructure:"databasePath"` // SQLite match history (empty disables history)
}

// LoadConfig resolves configuration from defaults, the config file,
// environment variables, and Vault, then validates the result.
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Loading configuration")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SKILLMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/skillmatch/")
	v.AddConfigPath("$HOME/.skillmatch")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	// Prompt overrides may live in files rather than inline
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load prompt files: %w", err)
	}

	// Overlay secrets held in Vault (API keys, Gemini key, TLS material)
	if err := ApplyVaultSecrets(&config, nil); err != nil {
		return nil, fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("matching.requiredWeight", 0.8)
	v.SetDefault("matching.bonusWeight", 0.2)
	v.SetDefault("matching.defaultProficiency", 70)
	v.SetDefault("matching.aliases", map[string]string{
		"js":     "javascript",
		"ts":     "typescript",
		"k8s":    "kubernetes",
		"golang": "go",
		"py":     "python",
	})

	v.SetDefault("extract.provider", "keyword")
	v.SetDefault("extract.taxonomyPath", "")
	v.SetDefault("extract.watchTaxonomy", false)
	v.SetDefault("extract.debounceDelay", time.Second)

	v.SetDefault("extract.gemini.model", "gemini-2.0-flash")
	v.SetDefault("extract.gemini.apiKey", "")
	v.SetDefault("extract.gemini.timeout", 60*time.Second)
	v.SetDefault("extract.gemini.maxRetries", 3)
	v.SetDefault("extract.gemini.temperature", 0.1) // Low temperature for consistent extraction
	v.SetDefault("extract.gemini.useSystemPrompts", true)
	v.SetDefault("extract.gemini.systemPrompt", "")
	v.SetDefault("extract.gemini.userPrompt", "")
	v.SetDefault("extract.gemini.systemPromptFile", "")
	v.SetDefault("extract.gemini.userPromptFile", "")

	v.SetDefault("extract.gemini.circuitBreaker.enabled", true)
	v.SetDefault("extract.gemini.circuitBreaker.maxRequests", 3)
	v.SetDefault("extract.gemini.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("extract.gemini.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("extract.gemini.circuitBreaker.minRequests", 3)
	v.SetDefault("extract.gemini.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.databasePath", "")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	setServerDefaults(v)
	setObservabilityDefaults(v)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.ValidateMatchingConfig(); err != nil {
		return fmt.Errorf("matching configuration error: %w", err)
	}
	if err := c.ValidateExtractConfig(); err != nil {
		return fmt.Errorf("extract configuration error: %w", err)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	supported := false
	for _, format := range c.App.SupportedFormats {
		if format == c.App.DefaultFormat {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// ValidateMatchingConfig validates the scoring policy
func (c *Config) ValidateMatchingConfig() error {
	m := c.Matching

	if m.RequiredWeight <= 0 || m.BonusWeight <= 0 {
		return fmt.Errorf("scoring weights must be positive (requiredWeight=%v, bonusWeight=%v)", m.RequiredWeight, m.BonusWeight)
	}
	if m.RequiredWeight <= m.BonusWeight {
		return fmt.Errorf("requiredWeight (%v) must exceed bonusWeight (%v)", m.RequiredWeight, m.BonusWeight)
	}
	if m.DefaultProficiency < 0 || m.DefaultProficiency > 100 {
		return fmt.Errorf("defaultProficiency must be in [0,100], got %d", m.DefaultProficiency)
	}

	return nil
}

// ValidateExtractConfig validates the extraction configuration
func (c *Config) ValidateExtractConfig() error {
	switch c.Extract.Provider {
	case "keyword":
		// Taxonomy path is optional; the built-in seed list is used when empty
	case "gemini":
		if c.Extract.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key is required for the gemini provider (set SKILLMATCH_EXTRACT_GEMINI_APIKEY)")
		}
		if c.Extract.Gemini.Timeout <= 0 {
			return fmt.Errorf("gemini timeout must be positive")
		}
	default:
		return fmt.Errorf("unsupported extract provider: %s (must be 'keyword' or 'gemini')", c.Extract.Provider)
	}

	return nil
}

// Global configuration instance
var GlobalConfig *Config

// InitConfig initializes the global configuration
func InitConfig() error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	GlobalConfig = config
	return nil
}
