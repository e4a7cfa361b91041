package store

import (
	"context"
	"slices"
	"testing"

	"skillmatch/internal/errors"
	"skillmatch/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := errors.New("error")
	s, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(score int) *types.MatchResult {
	return &types.MatchResult{
		OverallScore:     score,
		RequiredCoverage: 0.8,
		BonusCoverage:    0.5,
		MatchingSkills:   []string{"python", "sql"},
		MissingSkills:    []string{"aws"},
		Strengths:        []string{},
		Gaps:             []string{"Missing required skill: aws"},
		Recommendations:  []string{"Gain hands-on experience with aws to close a required skill gap"},
	}
}

func TestOpenDisabled(t *testing.T) {
	logger, _ := errors.New("error")
	s, err := Open("", logger)
	if err != nil {
		t.Fatalf("Open with empty path: %v", err)
	}
	if s != nil {
		t.Fatal("empty path should yield a nil store")
	}

	// nil store operations are no-ops
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("nil store Ping: %v", err)
	}
	record, err := s.SaveMatch(context.Background(), sampleResult(74), "cli")
	if err != nil || record != nil {
		t.Errorf("nil store SaveMatch = (%v, %v), want (nil, nil)", record, err)
	}
	records, err := s.ListRecent(context.Background(), 10)
	if err != nil || len(records) != 0 {
		t.Errorf("nil store ListRecent = (%v, %v), want empty", records, err)
	}
}

func TestSaveAndListRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, score := range []int{74, 55, 100} {
		record, err := s.SaveMatch(ctx, sampleResult(score), "api")
		if err != nil {
			t.Fatalf("SaveMatch %d: %v", i, err)
		}
		if record.ID == "" {
			t.Fatal("record has no id")
		}
		if record.OverallScore != score {
			t.Errorf("record score = %d, want %d", record.OverallScore, score)
		}
	}

	records, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	for _, r := range records {
		if r.Source != "api" {
			t.Errorf("source = %q, want api", r.Source)
		}
		if !slices.Equal(r.MatchingSkills, []string{"python", "sql"}) {
			t.Errorf("matching skills = %v", r.MatchingSkills)
		}
		if !slices.Equal(r.MissingSkills, []string{"aws"}) {
			t.Errorf("missing skills = %v", r.MissingSkills)
		}
	}
}

func TestListRecentLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for range 5 {
		if _, err := s.SaveMatch(ctx, sampleResult(74), "cli"); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	// Non-positive limit falls back to the default
	records, err = s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("got %d records, want 5", len(records))
	}
}

func TestGetResultRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	original := sampleResult(74)
	record, err := s.SaveMatch(ctx, original, "api")
	if err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	loaded, err := s.GetResult(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if loaded == nil {
		t.Fatal("stored result not found")
	}
	if loaded.OverallScore != original.OverallScore {
		t.Errorf("score = %d, want %d", loaded.OverallScore, original.OverallScore)
	}
	if !slices.Equal(loaded.MissingSkills, original.MissingSkills) {
		t.Errorf("missing skills = %v, want %v", loaded.MissingSkills, original.MissingSkills)
	}

	missing, err := s.GetResult(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("GetResult unknown id: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestSaveMatchNilResult(t *testing.T) {
	s := testStore(t)

	if _, err := s.SaveMatch(context.Background(), nil, "cli"); err == nil {
		t.Fatal("expected error for nil result")
	}
}
