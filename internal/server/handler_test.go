package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillmatch/internal/config"
	"skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/matching"
	"skillmatch/internal/observability"
	"skillmatch/internal/store"
	"skillmatch/internal/types"
)

func newTestServer(t *testing.T, withHistory bool) (*Server, *observability.ObservabilityManager) {
	t.Helper()

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	cfg := &config.Config{}
	cfg.Extract.Provider = "keyword"
	cfg.Observability.HealthCheck.Timeout = 5 * time.Second

	scorer, err := matching.NewScorer(matching.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}

	extractor, err := extract.NewService(&cfg.Extract, logger)
	if err != nil {
		t.Fatalf("failed to create extraction service: %v", err)
	}
	t.Cleanup(func() { _ = extractor.Close() })

	var history *store.Store
	if withHistory {
		history, err = store.Open(":memory:", logger)
		if err != nil {
			t.Fatalf("failed to open in-memory store: %v", err)
		}
		t.Cleanup(func() { _ = history.Close() })
	}

	srv := &Server{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		AppConfig:      cfg,
		APIKeys:        map[string]bool{},
		MaxRequestSize: 1024 * 1024,
		Scorer:         scorer,
		Extractor:      extractor,
		History:        history,
		Logger:         logger,
	}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}

	return srv, om
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestMatchHandler(t *testing.T) {
	srv, om := newTestServer(t, false)
	handler := srv.createMatchHandler(om)

	rec := postJSON(t, handler, "/match", MatchRequest{
		Candidate: &types.CandidateProfile{
			Skills: []types.CandidateSkill{{Name: "Python"}, {Name: "Go"}},
		},
		Job: &types.JobRequirements{
			Skills: []types.SkillRequirement{
				{Skill: "Python", Required: true},
				{Skill: "Go", Required: true},
			},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.MatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.OverallScore != 100 {
		t.Errorf("expected overall score 100, got %d", result.OverallScore)
	}
	if len(result.MissingSkills) != 0 {
		t.Errorf("expected no missing skills, got %v", result.MissingSkills)
	}
}

func TestMatchHandlerValidation(t *testing.T) {
	srv, om := newTestServer(t, false)
	handler := srv.createMatchHandler(om)

	t.Run("missing candidate", func(t *testing.T) {
		rec := postJSON(t, handler, "/match", MatchRequest{
			Job: &types.JobRequirements{},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing job", func(t *testing.T) {
		rec := postJSON(t, handler, "/match", MatchRequest{
			Candidate: &types.CandidateProfile{},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for non-JSON content type, got %d", rec.Code)
		}
	})
}

func TestFitHandler(t *testing.T) {
	srv, om := newTestServer(t, false)
	handler := srv.createFitHandler(om)

	rec := postJSON(t, handler, "/fit", FitRequest{
		Resume:         "Backend engineer. Strong Python and Go. Some Docker.",
		JobDescription: "Requirements: Python, Go.\n\nNice to have: Kubernetes.",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.FitOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.ExtractedProfile.Skills) == 0 {
		t.Error("expected extracted profile skills")
	}
	if len(result.ExtractedRequirements.Skills) == 0 {
		t.Error("expected extracted job requirements")
	}
	if result.Match.RequiredCoverage != 1.0 {
		t.Errorf("expected full required coverage, got %v", result.Match.RequiredCoverage)
	}
}

func TestFitHandlerValidation(t *testing.T) {
	srv, om := newTestServer(t, false)
	handler := srv.createFitHandler(om)

	rec := postJSON(t, handler, "/fit", FitRequest{Resume: "text only"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing job description, got %d", rec.Code)
	}
}

func TestMatchesHandler(t *testing.T) {
	srv, om := newTestServer(t, true)

	// Score one match through the handler so history has a record
	matchHandler := srv.createMatchHandler(om)
	rec := postJSON(t, matchHandler, "/match", MatchRequest{
		Candidate: &types.CandidateProfile{Skills: []types.CandidateSkill{{Name: "Go"}}},
		Job:       &types.JobRequirements{Skills: []types.SkillRequirement{{Skill: "Go", Required: true}}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("match request failed: %d", rec.Code)
	}

	handler := srv.createMatchesHandler(om)
	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	listRec := httptest.NewRecorder()
	handler(listRec, req)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", listRec.Code, listRec.Body.String())
	}

	var response struct {
		Records []types.MatchRecord `json:"records"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Records) != 1 {
		t.Errorf("expected 1 history record, got %d", len(response.Records))
	}
	if len(response.Records) > 0 && response.Records[0].Source != "api" {
		t.Errorf("expected source 'api', got %q", response.Records[0].Source)
	}
}

func TestMatchesHandlerDisabled(t *testing.T) {
	srv, om := newTestServer(t, false)
	handler := srv.createMatchesHandler(om)

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when history disabled, got %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, false)
	srv.APIKeys = map[string]bool{"secret-key-12345": true}

	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	handler := srv.authMiddleware(next)

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid header key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		req.Header.Set("X-API-Key", "secret-key-12345")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		req.Header.Set("Authorization", "Bearer secret-key-12345")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		req.Header.Set("X-API-Key", "wrong-key")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRateLimiterAllow(t *testing.T) {
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	limiter := NewRateLimiter(60, time.Minute, 2, logger)
	defer limiter.Close()

	// Burst capacity of 2 allows two immediate requests
	if !limiter.Allow("ip:10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("ip:10.0.0.1") {
		t.Error("second request should be allowed within burst")
	}
	if limiter.Allow("ip:10.0.0.1") {
		t.Error("third immediate request should be rate limited")
	}

	// A different key gets its own bucket
	if !limiter.Allow("ip:10.0.0.2") {
		t.Error("request from a different key should be allowed")
	}
}
