package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"skillmatch/internal/observability"
	"skillmatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createMatchHandler wraps the match handler with observability
func (s *Server) createMatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillmatch.api")
		ctx, span := tracer.Start(ctx, "api.match")
		defer span.End()

		// Parse request
		var req MatchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if req.Candidate == nil {
			err := fmt.Errorf("missing candidate profile")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing candidate profile", "candidate field is required", http.StatusBadRequest)
			return
		}
		if req.Job == nil {
			err := fmt.Errorf("missing job requirements")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job requirements", "job field is required", http.StatusBadRequest)
			return
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.Int("request.candidate_skills", len(req.Candidate.Skills)),
			attribute.Int("request.job_skills", len(req.Job.Skills)),
			attribute.String("operation", "match"),
		)

		metrics := om.GetMetrics()
		result, err := s.Scorer.Score(req.Candidate, req.Job)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "scoring"))
			metrics.RecordMatchScored(ctx, 0, false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to score match", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordMatchScored(ctx, result.OverallScore, true, om,
			attribute.Int("match.skill_count", len(result.SkillMatches)),
			attribute.Int("match.missing_count", len(result.MissingSkills)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("match.overall_score", result.OverallScore),
			attribute.Float64("match.required_coverage", result.RequiredCoverage),
		)

		s.saveHistory(ctx, result, metrics)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createFitHandler wraps the fit handler with observability
func (s *Server) createFitHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillmatch.api")
		ctx, span := tracer.Start(ctx, "api.fit")
		defer span.End()

		var req FitRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if strings.TrimSpace(req.Resume) == "" {
			err := fmt.Errorf("missing resume")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume", "resume field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		// Size validation
		if len(req.Resume) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("resume too large: %d chars", len(req.Resume))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Resume too large", fmt.Sprintf("resume exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.Resume)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "fit"),
		)

		metrics := om.GetMetrics()

		// Extract the candidate profile with observability and token usage
		var profile types.CandidateProfile
		err := metrics.TrackExtractionWithTokens(ctx, "profile", func(ctx context.Context) *observability.ExtractionResult {
			output, tokenUsage, extractErr := s.Extractor.Provider.ExtractProfile(ctx, req.Resume)
			profile = output
			return &observability.ExtractionResult{
				Error:      extractErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			metrics.RecordFitProcessed(ctx, false, om, attribute.String("stage", "profile"))
			writeErrorResponse(w, "Failed to extract candidate profile", err.Error(), http.StatusInternalServerError)
			return
		}

		// Extract the job requirements
		var requirements types.JobRequirements
		err = metrics.TrackExtractionWithTokens(ctx, "requirements", func(ctx context.Context) *observability.ExtractionResult {
			output, tokenUsage, extractErr := s.Extractor.Provider.ExtractRequirements(ctx, req.JobDescription)
			requirements = output
			return &observability.ExtractionResult{
				Error:      extractErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			metrics.RecordFitProcessed(ctx, false, om, attribute.String("stage", "requirements"))
			writeErrorResponse(w, "Failed to extract job requirements", err.Error(), http.StatusInternalServerError)
			return
		}

		match, err := s.Scorer.Score(&profile, &requirements)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "scoring"))
			metrics.RecordFitProcessed(ctx, false, om, attribute.String("stage", "scoring"))
			writeErrorResponse(w, "Failed to score match", err.Error(), http.StatusInternalServerError)
			return
		}

		result := types.FitOutput{
			ExtractedProfile:      profile,
			ExtractedRequirements: requirements,
			Match:                 *match,
		}

		metrics.RecordFitProcessed(ctx, true, om,
			attribute.Int("profile.skill_count", len(profile.Skills)),
			attribute.Int("requirements.skill_count", len(requirements.Skills)))
		metrics.RecordMatchScored(ctx, match.OverallScore, true, om,
			attribute.String("source", "fit"))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("match.overall_score", match.OverallScore),
			attribute.Int("profile.skill_count", len(profile.Skills)),
			attribute.Int("requirements.skill_count", len(requirements.Skills)),
		)

		s.saveHistory(ctx, match, metrics)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createMatchesHandler serves recent match history
func (s *Server) createMatchesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillmatch.api")
		ctx, span := tracer.Start(ctx, "api.matches")
		defer span.End()

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.History == nil {
			writeErrorResponse(w, "Match history disabled", "Configure app.databasePath to enable match history", http.StatusNotFound)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeErrorResponse(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		records, err := s.History.ListRecent(ctx, limit)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "storage"))
			writeErrorResponse(w, "Failed to list match history", err.Error(), http.StatusInternalServerError)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("records.count", len(records)),
		)

		w.Header().Set("Content-Type", "application/json")
		response := map[string]any{"records": records}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// saveHistory persists a scored match when history is enabled. Persistence
// failures are logged but never fail the request.
func (s *Server) saveHistory(ctx context.Context, result *types.MatchResult, metrics *observability.Metrics) {
	if s.History == nil {
		return
	}

	record, err := s.History.SaveMatch(ctx, result, "api")
	metrics.RecordHistoryWrite(ctx, err == nil)
	if err != nil {
		s.Logger.LogError(err, "Failed to persist match history")
		return
	}
	s.Logger.Debug("Match history saved", "record_id", record.ID)
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordRateLimitHit(r.Context(), om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
