package extract

import (
	"context"
	"slices"
	"testing"

	"skillmatch/internal/errors"
	"skillmatch/internal/types"
)

func testProvider(t *testing.T) *KeywordProvider {
	t.Helper()
	taxonomy, err := LoadTaxonomy("")
	if err != nil {
		t.Fatalf("LoadTaxonomy: %v", err)
	}
	logger, _ := errors.New("error")
	return NewKeywordProvider(taxonomy, logger)
}

func skillNames(skills []types.CandidateSkill) []string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain words", "Python and Java", " python and java "},
		{"preserves plus", "C++ developer", " c++ developer "},
		{"preserves hash", "C# and .NET", " c# and .net "},
		{"preserves inner dot", "Node.js expert", " node.js expert "},
		{"strips sentence period", "I know Go. Also Rust.", " i know go also rust "},
		{"drops punctuation", "Python, Java; Go/Rust", " python java go rust "},
		{"collapses whitespace", "  python \t java  ", " python java "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.input); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractProfileFindsSkills(t *testing.T) {
	p := testProvider(t)

	resume := `Jane Doe

Skills
Python, Go, Docker, Kubernetes and PostgreSQL. Some React too.

Experience
5 years as a backend engineer at Acme.

Education
BSc Computer Science.`

	profile, usage, err := p.ExtractProfile(context.Background(), resume)
	if err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}
	if usage != nil {
		t.Errorf("expected nil token usage from keyword provider, got %+v", usage)
	}

	names := skillNames(profile.Skills)
	for _, want := range []string{"Python", "Go", "Docker", "Kubernetes", "PostgreSQL", "React"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected skill %q in %v", want, names)
		}
	}

	if profile.Experience == "" {
		t.Error("expected experience section to be captured")
	}
	if profile.Education == "" {
		t.Error("expected education section to be captured")
	}
}

func TestExtractProfileMatchesAliases(t *testing.T) {
	p := testProvider(t)

	profile, _, err := p.ExtractProfile(context.Background(),
		"Built services in Golang with K8s deployments and Postgres storage.")
	if err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}

	names := skillNames(profile.Skills)
	for _, want := range []string{"Go", "Kubernetes", "PostgreSQL"} {
		if !slices.Contains(names, want) {
			t.Errorf("alias should resolve to canonical %q, got %v", want, names)
		}
	}
}

func TestExtractProfileSymbolSkills(t *testing.T) {
	p := testProvider(t)

	profile, _, err := p.ExtractProfile(context.Background(),
		"Systems work in C++ and C#, web services with Node.js.")
	if err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}

	names := skillNames(profile.Skills)
	for _, want := range []string{"C++", "C#", "Node.js"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected %q in %v", want, names)
		}
	}
	// "C++" in the text must not also count as plain shorter matches it contains
	if slices.Contains(names, "Java") {
		t.Errorf("unexpected skill Java in %v", names)
	}
}

func TestExtractProfileEmptyInput(t *testing.T) {
	p := testProvider(t)

	_, _, err := p.ExtractProfile(context.Background(), "   \n ")
	if err == nil {
		t.Fatal("expected error for empty resume")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidArgument {
		t.Errorf("expected %s error, got %v", errors.ErrCodeInvalidArgument, err)
	}
}

func TestExtractProfileDeterministic(t *testing.T) {
	p := testProvider(t)
	resume := "Python, Go, Docker, AWS, Terraform, React and TypeScript."

	first, _, err := p.ExtractProfile(context.Background(), resume)
	if err != nil {
		t.Fatalf("ExtractProfile: %v", err)
	}
	for range 5 {
		again, _, err := p.ExtractProfile(context.Background(), resume)
		if err != nil {
			t.Fatalf("ExtractProfile: %v", err)
		}
		if !slices.Equal(skillNames(first.Skills), skillNames(again.Skills)) {
			t.Fatalf("extraction is not deterministic: %v vs %v",
				skillNames(first.Skills), skillNames(again.Skills))
		}
	}
}

func TestExtractRequirementsRequiredByDefault(t *testing.T) {
	p := testProvider(t)

	job, _, err := p.ExtractRequirements(context.Background(),
		"We need strong Python and SQL. Experience with Docker expected.")
	if err != nil {
		t.Fatalf("ExtractRequirements: %v", err)
	}

	if len(job.Skills) == 0 {
		t.Fatal("expected skills to be extracted")
	}
	for _, s := range job.Skills {
		if !s.Required {
			t.Errorf("skill %q should be required without an optional section", s.Skill)
		}
	}
}

func TestExtractRequirementsOptionalSections(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"nice to have", "Nice to have:"},
		{"preferred", "Preferred:"},
		{"bonus", "Bonus:"},
		{"plus", "A plus :"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProvider(t)
			job, _, err := p.ExtractRequirements(context.Background(),
				"Requirements: Python and SQL.\n\n"+tt.marker+"\nKubernetes and Terraform.")
			if err != nil {
				t.Fatalf("ExtractRequirements: %v", err)
			}

			byName := make(map[string]bool, len(job.Skills))
			for _, s := range job.Skills {
				byName[s.Skill] = s.Required
			}

			for name, wantRequired := range map[string]bool{
				"Python": true, "SQL": true,
				"Kubernetes": false, "Terraform": false,
			} {
				got, found := byName[name]
				if !found {
					t.Errorf("skill %q not extracted, have %v", name, byName)
					continue
				}
				if got != wantRequired {
					t.Errorf("skill %q required = %v, want %v", name, got, wantRequired)
				}
			}
		})
	}
}

func TestExtractRequirementsCategories(t *testing.T) {
	p := testProvider(t)

	job, _, err := p.ExtractRequirements(context.Background(), "Looking for React and AWS skills.")
	if err != nil {
		t.Fatalf("ExtractRequirements: %v", err)
	}

	categories := make(map[string]string)
	for _, s := range job.Skills {
		categories[s.Skill] = s.Category
	}
	if categories["React"] != "Frontend" {
		t.Errorf("React category = %q, want Frontend", categories["React"])
	}
	if categories["AWS"] != "Cloud" {
		t.Errorf("AWS category = %q, want Cloud", categories["AWS"])
	}
}

func TestExtractRequirementsEmptyInput(t *testing.T) {
	p := testProvider(t)

	_, _, err := p.ExtractRequirements(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty job description")
	}
}

func TestKeywordModelInfo(t *testing.T) {
	p := testProvider(t)

	info := p.GetModelInfo(context.Background())
	if info.Name != "keyword" {
		t.Errorf("model name = %q, want keyword", info.Name)
	}
	if !info.Available {
		t.Errorf("keyword provider with built-in taxonomy should be available: %+v", info)
	}
}

func TestCaptureSection(t *testing.T) {
	doc := `Summary
Engineer.

Work Experience
Acme Corp, 2018-2024.
Backend services.

Education
MSc, 2018.`

	if got := captureSection(doc, "experience"); got != "Acme Corp, 2018-2024. Backend services." {
		t.Errorf("experience section = %q", got)
	}
	if got := captureSection(doc, "education"); got != "MSc, 2018." {
		t.Errorf("education section = %q", got)
	}
	if got := captureSection("no headings at all", "education"); got != "" {
		t.Errorf("expected empty section, got %q", got)
	}
}

func BenchmarkExtractProfile(b *testing.B) {
	taxonomy, _ := LoadTaxonomy("")
	logger, _ := errors.New("error")
	p := NewKeywordProvider(taxonomy, logger)
	resume := "Experienced engineer: Python, Go, Docker, Kubernetes, AWS, Terraform, React, TypeScript, PostgreSQL, Redis."

	for b.Loop() {
		if _, _, err := p.ExtractProfile(context.Background(), resume); err != nil {
			b.Fatal(err)
		}
	}
}
