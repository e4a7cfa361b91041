package matching

import (
	"encoding/json"
	"testing"

	"skillmatch/internal/types"
)

func mustScorer(t *testing.T, opts Options) *Scorer {
	t.Helper()
	s, err := NewScorer(opts)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}
	return s
}

func candidateWith(skills ...string) *types.CandidateProfile {
	p := &types.CandidateProfile{}
	for _, s := range skills {
		p.Skills = append(p.Skills, types.CandidateSkill{Name: s})
	}
	return p
}

func jobWith(required []string, optional []string) *types.JobRequirements {
	j := &types.JobRequirements{}
	for _, s := range required {
		j.Skills = append(j.Skills, types.SkillRequirement{Skill: s, Required: true})
	}
	for _, s := range optional {
		j.Skills = append(j.Skills, types.SkillRequirement{Skill: s, Required: false})
	}
	return j
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "React", "react"},
		{"trim", "  react ", "react"},
		{"inner whitespace collapsed", "machine   learning", "machine learning"},
		{"mixed", "  Machine\tLearning ", "machine learning"},
		{"punctuation preserved", "Node.js", "node.js"},
		{"symbols preserved", "C++", "c++"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewScorerValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults valid", DefaultOptions(), false},
		{"zero required weight", Options{RequiredWeight: 0, BonusWeight: 0.2, DefaultProficiency: 70}, true},
		{"negative bonus weight", Options{RequiredWeight: 0.8, BonusWeight: -0.1, DefaultProficiency: 70}, true},
		{"bonus dominates required", Options{RequiredWeight: 0.3, BonusWeight: 0.7, DefaultProficiency: 70}, true},
		{"equal weights", Options{RequiredWeight: 0.5, BonusWeight: 0.5, DefaultProficiency: 70}, true},
		{"proficiency out of range", Options{RequiredWeight: 0.8, BonusWeight: 0.2, DefaultProficiency: 101}, true},
		{"unnormalized weights valid", Options{RequiredWeight: 4, BonusWeight: 1, DefaultProficiency: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScorer(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScorer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScoreNilInputs(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	if _, err := s.Score(nil, &types.JobRequirements{}); err == nil {
		t.Error("Score(nil, job) expected error, got nil")
	}
	if _, err := s.Score(&types.CandidateProfile{}, nil); err == nil {
		t.Error("Score(candidate, nil) expected error, got nil")
	}
}

func TestScoreExampleScenario(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	candidate := candidateWith("React", "TypeScript", "Node.js", "Python", "Docker", "MongoDB")
	job := jobWith(
		[]string{"React", "TypeScript", "Node.js", "AWS", "MongoDB"},
		[]string{"Docker", "GraphQL"},
	)

	result, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if result.RequiredCoverage != 0.8 {
		t.Errorf("RequiredCoverage = %v, want 0.8", result.RequiredCoverage)
	}
	if result.BonusCoverage != 0.5 {
		t.Errorf("BonusCoverage = %v, want 0.5", result.BonusCoverage)
	}
	if result.OverallScore != 74 {
		t.Errorf("OverallScore = %d, want 74", result.OverallScore)
	}
	if len(result.MissingSkills) != 1 || result.MissingSkills[0] != "aws" {
		t.Errorf("MissingSkills = %v, want [aws]", result.MissingSkills)
	}

	wantMatching := map[string]bool{"react": true, "typescript": true, "node.js": true, "mongodb": true, "docker": true}
	if len(result.MatchingSkills) != len(wantMatching) {
		t.Fatalf("MatchingSkills = %v, want 5 entries", result.MatchingSkills)
	}
	for _, skill := range result.MatchingSkills {
		if !wantMatching[skill] {
			t.Errorf("unexpected matching skill %q", skill)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	tests := []struct {
		name      string
		candidate *types.CandidateProfile
		job       *types.JobRequirements
	}{
		{"empty both", &types.CandidateProfile{}, &types.JobRequirements{}},
		{"empty candidate", &types.CandidateProfile{}, jobWith([]string{"Go", "SQL"}, []string{"Docker"})},
		{"empty job", candidateWith("Go", "SQL"), &types.JobRequirements{}},
		{"full match", candidateWith("Go"), jobWith([]string{"Go"}, nil)},
		{"no match", candidateWith("Cobol"), jobWith([]string{"Go"}, []string{"Rust"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Score(tt.candidate, tt.job)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if result.OverallScore < 0 || result.OverallScore > 100 {
				t.Errorf("OverallScore = %d, out of [0,100]", result.OverallScore)
			}
		})
	}
}

func TestScoreVacuousCoverage(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	// No required skills: required coverage contributes 1.0 regardless of
	// the candidate, so the score is driven by bonus coverage alone.
	result, err := s.Score(candidateWith("Go"), jobWith(nil, []string{"Rust", "Zig"}))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.RequiredCoverage != 1.0 {
		t.Errorf("RequiredCoverage = %v, want 1.0", result.RequiredCoverage)
	}
	if result.BonusCoverage != 0.0 {
		t.Errorf("BonusCoverage = %v, want 0.0", result.BonusCoverage)
	}
	if result.OverallScore != 80 {
		t.Errorf("OverallScore = %d, want 80 (required weight alone)", result.OverallScore)
	}

	// Empty job matches everything at full score.
	result, err = s.Score(candidateWith("Go"), &types.JobRequirements{})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100 for empty job", result.OverallScore)
	}
}

func TestScoreSupersetIsPerfect(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	candidate := candidateWith("Go", "SQL", "Docker", "Kubernetes", "Terraform")
	job := jobWith([]string{"Go", "SQL"}, []string{"Docker", "Kubernetes"})

	result, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100", result.OverallScore)
	}
	if len(result.MissingSkills) != 0 {
		t.Errorf("MissingSkills = %v, want empty", result.MissingSkills)
	}
}

func TestScoreDisjointSkills(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	result, err := s.Score(candidateWith("Cobol", "Fortran"), jobWith([]string{"Go", "SQL"}, []string{"Docker"}))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", result.OverallScore)
	}
	if len(result.MissingSkills) != 2 {
		t.Errorf("MissingSkills = %v, want every required skill", result.MissingSkills)
	}
}

func TestScoreCaseAndWhitespaceInsensitive(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	result, err := s.Score(candidateWith(" react "), jobWith([]string{"React"}, nil))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100 (\" react \" should match \"React\")", result.OverallScore)
	}
}

func TestScoreMissingExcludesOptional(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	result, err := s.Score(candidateWith("Go"), jobWith([]string{"Go"}, []string{"Rust"}))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.MissingSkills) != 0 {
		t.Errorf("MissingSkills = %v, optional skills must never be reported missing", result.MissingSkills)
	}
	for _, gap := range result.Gaps {
		t.Errorf("unexpected gap %q for optional-only miss", gap)
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	candidate := candidateWith("React", "TypeScript", "Docker")
	job := jobWith([]string{"React", "AWS"}, []string{"Docker"})

	first, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	second, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("results differ between identical calls:\n%s\n%s", a, b)
	}
}

func TestScoreAliases(t *testing.T) {
	opts := DefaultOptions()
	opts.Aliases = map[string]string{"JS": "JavaScript", "k8s": "Kubernetes"}
	s := mustScorer(t, opts)

	result, err := s.Score(candidateWith("js", "K8s"), jobWith([]string{"JavaScript", "Kubernetes"}, nil))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100 with alias resolution", result.OverallScore)
	}
}

func TestScoreProficiency(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	candidate := &types.CandidateProfile{
		Skills: []types.CandidateSkill{
			{Name: "Go", Proficiency: 95},
			{Name: "SQL"}, // unknown, gets the default
		},
	}
	job := jobWith([]string{"Go", "SQL", "Rust"}, nil)

	result, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	byName := make(map[string]types.SkillMatch)
	for _, m := range result.SkillMatches {
		byName[m.Skill] = m
	}
	if got := byName["go"].Score; got != 95 {
		t.Errorf("go proficiency = %d, want 95", got)
	}
	if got := byName["sql"].Score; got != DefaultProficiency {
		t.Errorf("sql proficiency = %d, want default %d", got, DefaultProficiency)
	}
	if got := byName["rust"].Score; got != 0 {
		t.Errorf("rust proficiency = %d, want 0 for unmatched", got)
	}
}

func TestScoreStrengthsPerCategory(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	candidate := candidateWith("React", "TypeScript", "AWS")
	job := &types.JobRequirements{
		Skills: []types.SkillRequirement{
			{Skill: "React", Required: true, Category: "Frontend"},
			{Skill: "TypeScript", Required: true, Category: "Frontend"},
			{Skill: "AWS", Required: true, Category: "Cloud"},
			{Skill: "Terraform", Required: false, Category: "Cloud"},
		},
	}

	result, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// Frontend has two matched skills, Cloud only one.
	if len(result.Strengths) != 1 {
		t.Fatalf("Strengths = %v, want exactly one", result.Strengths)
	}
	if got := result.Strengths[0]; got != "Strong Frontend coverage: react, typescript" {
		t.Errorf("Strengths[0] = %q", got)
	}
}

func TestScoreDuplicateHandling(t *testing.T) {
	s := mustScorer(t, DefaultOptions())

	// Duplicate candidate skills keep the highest proficiency; duplicate
	// requirements collapse to one entry, upgrading to required if any
	// duplicate is required.
	candidate := &types.CandidateProfile{
		Skills: []types.CandidateSkill{
			{Name: "Go", Proficiency: 40},
			{Name: "go", Proficiency: 90},
		},
	}
	job := &types.JobRequirements{
		Skills: []types.SkillRequirement{
			{Skill: "Go", Required: false},
			{Skill: "GO", Required: true},
			{Skill: "Rust", Required: true},
		},
	}

	result, err := s.Score(candidate, job)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.SkillMatches) != 2 {
		t.Fatalf("SkillMatches = %v, want 2 deduplicated entries", result.SkillMatches)
	}
	if !result.SkillMatches[0].Required {
		t.Error("duplicate requirement should be upgraded to required")
	}
	if result.SkillMatches[0].Score != 90 {
		t.Errorf("proficiency = %d, want highest duplicate (90)", result.SkillMatches[0].Score)
	}
	if result.RequiredCoverage != 0.5 {
		t.Errorf("RequiredCoverage = %v, want 0.5", result.RequiredCoverage)
	}
}

func TestCompareRequirement(t *testing.T) {
	tests := []struct {
		name      string
		required  string
		candidate string
		match     bool
	}{
		{"empty requirement matches anything", "", "2 years", true},
		{"empty requirement empty candidate", "", "", true},
		{"exact", "Bachelor's degree", "bachelor's degree", true},
		{"containment", "5+ years", "Backend engineer, 5+ years with Go", true},
		{"no match", "PhD", "Bachelor's degree", false},
		{"requirement without candidate", "3 years", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareRequirement(tt.required, tt.candidate)
			if got.Match != tt.match {
				t.Errorf("compareRequirement(%q, %q).Match = %v, want %v", tt.required, tt.candidate, got.Match, tt.match)
			}
		})
	}
}

func TestScoreCustomWeights(t *testing.T) {
	s := mustScorer(t, Options{RequiredWeight: 0.9, BonusWeight: 0.1, DefaultProficiency: 70})

	// Half the required skills, all bonus skills.
	result, err := s.Score(candidateWith("Go", "Docker"), jobWith([]string{"Go", "SQL"}, []string{"Docker"}))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	// round(100 * (0.9*0.5 + 0.1*1.0)) = 55
	if result.OverallScore != 55 {
		t.Errorf("OverallScore = %d, want 55", result.OverallScore)
	}
}

func BenchmarkScore(b *testing.B) {
	s, err := NewScorer(DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	candidate := candidateWith("React", "TypeScript", "Node.js", "Python", "Docker", "MongoDB", "Go", "SQL", "Kubernetes")
	job := jobWith(
		[]string{"React", "TypeScript", "Node.js", "AWS", "MongoDB"},
		[]string{"Docker", "GraphQL", "Terraform"},
	)

	for b.Loop() {
		if _, err := s.Score(candidate, job); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	for b.Loop() {
		Normalize("  Machine   Learning ")
	}
}
