package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including
// extraction backend status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "skillmatch",
		"version": s.Version,
	}

	// Check extraction backend availability
	extractorStatus := s.checkExtractorHealth()
	response["extractor"] = extractorStatus

	// Check circuit breaker status
	response["circuit_breakers"] = s.Extractor.GetCircuitBreakerStats()

	// Check taxonomy status
	response["taxonomy"] = s.checkTaxonomyHealth()

	// Check match history storage
	historyStatus := s.checkHistoryHealth()
	response["history"] = historyStatus

	// Determine overall health status
	overallHealthy := true
	if available, ok := extractorStatus["available"].(bool); ok && !available {
		overallHealthy = false
	}
	if healthy, ok := historyStatus["healthy"].(bool); ok && !healthy {
		overallHealthy = false
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkExtractorHealth checks the health of the configured extraction backend
func (s *Server) checkExtractorHealth() map[string]any {
	// Use configurable health check timeout
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	modelInfo := s.Extractor.GetModelInfo(ctx)

	status := map[string]any{
		"provider":  s.AppConfig.Extract.Provider,
		"available": modelInfo.Available,
	}
	if modelInfo.Name != "" {
		status["model"] = modelInfo.Name
	}
	if modelInfo.Version != "" {
		status["version"] = modelInfo.Version
	}
	if modelInfo.Error != "" {
		status["error"] = modelInfo.Error
	}

	return status
}

// checkTaxonomyHealth reports the state of the loaded skill taxonomy
func (s *Server) checkTaxonomyHealth() map[string]any {
	taxonomy := s.Extractor.Taxonomy()

	status := map[string]any{
		"entries": taxonomy.Len(),
	}
	if path := taxonomy.Path(); path != "" {
		status["path"] = path
	} else {
		status["path"] = "built-in"
	}
	status["watcher_running"] = s.Extractor.TaxonomyWatcherRunning()

	return status
}

// checkHistoryHealth reports the state of the match history store
func (s *Server) checkHistoryHealth() map[string]any {
	if s.History == nil {
		return map[string]any{"enabled": false}
	}

	status := map[string]any{"enabled": true}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.History.Ping(ctx); err != nil {
		status["healthy"] = false
		status["error"] = fmt.Sprintf("Database ping failed: %v", err)
	} else {
		status["healthy"] = true
	}

	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "skillmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	// Add scoring policy info
	response["matching"] = map[string]any{
		"required_weight":     s.AppConfig.Matching.RequiredWeight,
		"bonus_weight":        s.AppConfig.Matching.BonusWeight,
		"default_proficiency": s.AppConfig.Matching.DefaultProficiency,
		"alias_count":         len(s.AppConfig.Matching.Aliases),
	}

	// Add extraction info
	response["extract"] = map[string]any{
		"provider":         s.AppConfig.Extract.Provider,
		"taxonomy_entries": s.Extractor.Taxonomy().Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
