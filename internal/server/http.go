package server

import (
	"time"

	"skillmatch/internal/config"
	skillmatchErrors "skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/matching"
	"skillmatch/internal/store"
	"skillmatch/internal/types"
)

// MatchRequest is the body of the match endpoint: structured profiles on
// both sides.
type MatchRequest struct {
	Candidate *types.CandidateProfile `json:"candidate"`
	Job       *types.JobRequirements  `json:"job"`
}

// FitRequest is the body of the fit endpoint: raw text that gets extracted
// before scoring.
type FitRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Scoring and extraction services
	Scorer    *matching.Scorer
	Extractor *extract.Service

	// Match history (nil when disabled)
	History *store.Store

	// Logger
	Logger *skillmatchErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *skillmatchErrors.Logger) (*Server, error) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	scorer, err := matching.NewScorer(matching.Options{
		RequiredWeight:     appCfg.Matching.RequiredWeight,
		BonusWeight:        appCfg.Matching.BonusWeight,
		DefaultProficiency: appCfg.Matching.DefaultProficiency,
		Aliases:            appCfg.Matching.Aliases,
	})
	if err != nil {
		return nil, err
	}

	extractor, err := extract.NewService(&appCfg.Extract, logger)
	if err != nil {
		return nil, err
	}

	history, err := store.Open(appCfg.App.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Scorer:         scorer,
		Extractor:      extractor,
		History:        history,
		Logger:         logger,
	}, nil
}
