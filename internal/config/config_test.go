package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBaseConfig() Config {
	return Config{
		Matching: MatchingConfig{
			RequiredWeight:     0.8,
			BonusWeight:        0.2,
			DefaultProficiency: 70,
		},
		Extract: ExtractConfig{
			Provider: "keyword",
		},
		Server: ServerConfig{
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidateMatchingConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name: "zero required weight",
			mutate: func(c *Config) {
				c.Matching.RequiredWeight = 0
			},
			expectError: true,
			errorMsg:    "scoring weights must be positive",
		},
		{
			name: "negative bonus weight",
			mutate: func(c *Config) {
				c.Matching.BonusWeight = -0.5
			},
			expectError: true,
			errorMsg:    "scoring weights must be positive",
		},
		{
			name: "bonus exceeds required",
			mutate: func(c *Config) {
				c.Matching.RequiredWeight = 0.2
				c.Matching.BonusWeight = 0.8
			},
			expectError: true,
			errorMsg:    "must exceed bonusWeight",
		},
		{
			name: "default proficiency out of range",
			mutate: func(c *Config) {
				c.Matching.DefaultProficiency = 150
			},
			expectError: true,
			errorMsg:    "defaultProficiency must be in [0,100]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(&cfg)

			err := cfg.ValidateMatchingConfig()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateExtractConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "keyword provider",
			mutate: func(c *Config) {},
		},
		{
			name: "gemini provider with key",
			mutate: func(c *Config) {
				c.Extract.Provider = "gemini"
				c.Extract.Gemini.APIKey = "test-key"
				c.Extract.Gemini.Timeout = 30 * time.Second
			},
		},
		{
			name: "gemini provider without key",
			mutate: func(c *Config) {
				c.Extract.Provider = "gemini"
			},
			expectError: true,
			errorMsg:    "gemini API key is required",
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.Extract.Provider = "openai"
			},
			expectError: true,
			errorMsg:    "unsupported extract provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(&cfg)

			err := cfg.ValidateExtractConfig()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validBaseConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Server.Port = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server port is required")
	})

	t.Run("invalid default format", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.App.DefaultFormat = "xml"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid default format")
	})
}
