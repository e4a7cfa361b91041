package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"skillmatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KVv2 paths the secret overlay reads. APIKeys
// expects a single comma-separated string value under the "keys" field.
type VaultSecrets struct {
	APIKeys   string `mapstructure:"apiKeys"`
	GeminiKey string `mapstructure:"geminiKey"`
	TLSCerts  string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client together with the configured
// secret paths.
type VaultClient struct {
	api     *api.Client
	secrets VaultSecrets
	logger  *errors.Logger
}

// VaultSecret is a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects and authenticates against Vault. Returns
// (nil, nil) when the integration is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := vaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiCfg.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{api: client, secrets: cfg.Secrets, logger: logger}, nil
}

// vaultToken resolves the auth token from the inline config value or,
// failing that, from the token file.
func vaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token

	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads and unwraps a KVv2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.api.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, version, err := kv2Unwrap(secret, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// kv2Unwrap pulls the payload and version out of a KVv2 read response.
func kv2Unwrap(secret *api.Secret, path string) (map[string]any, int64, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return nil, 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}

	version, err := kv2Version(raw, path)
	if err != nil {
		return nil, 0, err
	}
	return data, version, nil
}

// kv2Version normalizes the version field, which the API may deliver as a
// number or a string depending on transport.
func kv2Version(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
}

// GetStringSecret reads one string field from a KVv2 secret.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}

	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	if vc.logger != nil {
		vc.logger.Debug("Secret retrieved from Vault",
			"path", path, "key", key, "masked_value", maskSecret(str))
	}
	return str, nil
}

// GetStringSliceSecret reads a comma-separated string field as a slice.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return []string{}, nil
	}

	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts, nil
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:4] + "****" + s[len(s)-4:]
	}
	if s != "" {
		return "****"
	}
	return ""
}

// ApplyVaultSecrets overlays Vault-held secrets onto the loaded config:
// server API keys, the Gemini key, and inline TLS material.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	if err := client.overlayAPIKeys(cfg); err != nil {
		return err
	}
	if err := client.overlayGeminiKey(cfg); err != nil {
		return err
	}
	if err := client.overlayTLSCerts(cfg); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Applied secrets from Vault")
	}
	return nil
}

func (vc *VaultClient) overlayAPIKeys(cfg *Config) error {
	path := vc.secrets.APIKeys
	if path == "" {
		return nil
	}

	keys, err := vc.GetStringSliceSecret(path, "keys")
	if err != nil {
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}

	if len(keys) > 0 {
		cfg.Server.APIKeys = keys
		if vc.logger != nil {
			vc.logger.Info("API keys loaded from Vault", "count", len(keys))
		}
	} else if vc.logger != nil {
		vc.logger.Warn("No API keys found in Vault", "path", path)
	}
	return nil
}

func (vc *VaultClient) overlayGeminiKey(cfg *Config) error {
	path := vc.secrets.GeminiKey
	if path == "" {
		return nil
	}

	key, err := vc.GetStringSecret(path, "api_key")
	if err != nil {
		return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
	}

	if key != "" {
		cfg.Extract.Gemini.APIKey = key
	} else if vc.logger != nil {
		vc.logger.Warn("Empty Gemini API key found in Vault", "path", path)
	}
	return nil
}

func (vc *VaultClient) overlayTLSCerts(cfg *Config) error {
	path := vc.secrets.TLSCerts
	if path == "" {
		return nil
	}

	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	loaded := 0
	loaded += setCertField(secret, "cert", &cfg.Server.TLS.CertContent)
	loaded += setCertField(secret, "key", &cfg.Server.TLS.KeyContent)
	loaded += setCertField(secret, "ca", &cfg.Server.TLS.CAContent)

	if vc.logger != nil {
		vc.logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}
	return nil
}

// setCertField copies one PEM field into the TLS config when present and
// non-empty, reporting 1 on a hit so callers can count loads.
func setCertField(secret *VaultSecret, key string, target *string) int {
	if content, ok := secret.Data[key].(string); ok && content != "" {
		*target = content
		return 1
	}
	return 0
}
