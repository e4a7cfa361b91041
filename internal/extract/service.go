package extract

import (
	"context"
	"fmt"

	"skillmatch/internal/config"
	"skillmatch/internal/errors"
)

// Service handles skill extraction from resume and job description text
type Service struct {
	Provider Provider // Exported for access from server package
	config   *config.ExtractConfig
	taxonomy *Taxonomy
	watcher  *TaxonomyWatcher
	logger   *errors.Logger
}

// NewService creates an extraction service for the configured provider
func NewService(cfg *config.ExtractConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing extraction service",
		"provider", cfg.Provider,
		"taxonomy_path", cfg.TaxonomyPath,
		"watch_taxonomy", cfg.WatchTaxonomy)

	taxonomy, err := LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	var provider Provider
	switch cfg.Provider {
	case "keyword":
		provider = NewKeywordProvider(taxonomy, logger)
	case "gemini":
		provider, err = NewGeminiProvider(&cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported extract provider: %s", cfg.Provider), nil)
	}

	s := &Service{
		Provider: provider,
		config:   cfg,
		taxonomy: taxonomy,
		logger:   logger,
	}

	if cfg.WatchTaxonomy && cfg.TaxonomyPath != "" {
		watcher, err := NewTaxonomyWatcher(taxonomy, cfg.DebounceDelay, logger)
		if err != nil {
			return nil, err
		}
		if err := watcher.Start(); err != nil {
			return nil, err
		}
		s.watcher = watcher
	}

	logger.Info("Extraction service initialized",
		"provider", cfg.Provider,
		"taxonomy_entries", taxonomy.Len())

	return s, nil
}

// Taxonomy returns the loaded skill taxonomy
func (s *Service) Taxonomy() *Taxonomy {
	return s.taxonomy
}

// TaxonomyWatcherRunning reports whether the taxonomy file watcher is active
func (s *Service) TaxonomyWatcherRunning() bool {
	return s.watcher != nil && s.watcher.IsRunning()
}

// GetModelInfo returns information about the extraction backend for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats returns breaker statistics when the provider has one
func (s *Service) GetCircuitBreakerStats() map[string]any {
	if g, ok := s.Provider.(*GeminiProvider); ok {
		return g.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases provider resources and stops the taxonomy watcher
func (s *Service) Close() error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop taxonomy watcher")
		}
	}
	return s.Provider.Close()
}
