package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	apperrors "skillmatch/internal/errors"
	"skillmatch/internal/matching"
	"skillmatch/internal/types"
)

// optionalMarkers introduce the section of a job description whose skills
// are treated as nice-to-have rather than required.
var optionalMarkers = []string{
	"nice to have",
	"preferred",
	"bonus",
	"plus",
}

// KeywordProvider is the deterministic extraction backend. It scans text
// for taxonomy skills by normalized phrase matching and needs no network
// access, so the same input always yields the same output.
type KeywordProvider struct {
	taxonomy *Taxonomy
	logger   *apperrors.Logger
}

var _ Provider = (*KeywordProvider)(nil)

// NewKeywordProvider creates a keyword extractor over the given taxonomy.
func NewKeywordProvider(taxonomy *Taxonomy, logger *apperrors.Logger) *KeywordProvider {
	return &KeywordProvider{
		taxonomy: taxonomy,
		logger:   logger,
	}
}

// ExtractProfile scans resume text for known skills and section headers.
func (k *KeywordProvider) ExtractProfile(ctx context.Context, resume string) (types.CandidateProfile, *TokenUsage, error) {
	if strings.TrimSpace(resume) == "" {
		return types.CandidateProfile{}, nil, apperrors.NewValidationError(
			apperrors.ErrCodeInvalidArgument, "Resume text is empty", nil)
	}

	text := normalizeText(resume)
	profile := types.CandidateProfile{
		Experience: captureSection(resume, "experience"),
		Education:  captureSection(resume, "education"),
	}

	for _, entry := range k.taxonomy.Entries() {
		if _, found := findSkill(text, entry); found {
			profile.Skills = append(profile.Skills, types.CandidateSkill{
				Name: entry.Name,
				// Proficiency is unknown from plain text; the scorer
				// substitutes its configured default for zero.
			})
		}
	}

	k.logger.Debug("Keyword profile extraction completed",
		"skills_found", len(profile.Skills),
		"resume_length", len(resume))

	return profile, nil, nil
}

// ExtractRequirements scans a job description for known skills. Skills that
// first appear after an optional-section marker ("nice to have", "preferred",
// "bonus", "plus") are recorded as optional; everything else is required.
func (k *KeywordProvider) ExtractRequirements(ctx context.Context, jobDescription string) (types.JobRequirements, *TokenUsage, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.JobRequirements{}, nil, apperrors.NewValidationError(
			apperrors.ErrCodeInvalidArgument, "Job description text is empty", nil)
	}

	text := normalizeText(jobDescription)
	optionalFrom := optionalSectionStart(text)

	job := types.JobRequirements{
		Experience: captureSection(jobDescription, "experience"),
		Education:  captureSection(jobDescription, "education"),
	}

	for _, entry := range k.taxonomy.Entries() {
		pos, found := findSkill(text, entry)
		if !found {
			continue
		}
		job.Skills = append(job.Skills, types.SkillRequirement{
			Skill:    entry.Name,
			Required: optionalFrom < 0 || pos < optionalFrom,
			Category: entry.Category,
		})
	}

	k.logger.Debug("Keyword requirement extraction completed",
		"skills_found", len(job.Skills),
		"has_optional_section", optionalFrom >= 0,
		"job_length", len(jobDescription))

	return job, nil, nil
}

// GetModelInfo reports extractor readiness for health checks.
func (k *KeywordProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{
		Name:        "keyword",
		DisplayName: "Keyword taxonomy extractor",
		Available:   k.taxonomy.Len() > 0,
	}
	if !info.Available {
		info.Error = "taxonomy is empty"
	}
	if path := k.taxonomy.Path(); path != "" {
		info.Version = fmt.Sprintf("%d entries (%s)", k.taxonomy.Len(), path)
	} else {
		info.Version = fmt.Sprintf("%d entries (built-in)", k.taxonomy.Len())
	}
	return info
}

// Close implements Provider. The keyword extractor holds no resources.
func (k *KeywordProvider) Close() error {
	return nil
}

// normalizeText lowercases text and reduces it to space-separated tokens.
// Letters, digits and the symbols + # . survive so skills like "c++",
// "c#" and "node.js" stay intact; trailing periods are sentence
// punctuation and get stripped.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')

	inToken := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			b.WriteRune(r)
			inToken = true
		} else if inToken {
			b.WriteByte(' ')
			inToken = false
		}
	}
	if inToken {
		b.WriteByte(' ')
	}

	return strings.ReplaceAll(b.String(), ". ", " ")
}

// findSkill returns the earliest position of the entry's name or any alias
// in normalized text, matching whole space-delimited phrases. Labels go
// through the same tokenizer as the text so "CI/CD" matches "ci cd".
func findSkill(text string, entry TaxonomyEntry) (int, bool) {
	best := -1
	labels := append([]string{entry.Name}, entry.Aliases...)
	for _, label := range labels {
		normalized := strings.TrimSpace(normalizeText(label))
		if normalized == "" {
			continue
		}
		if pos := strings.Index(text, " "+normalized+" "); pos >= 0 {
			if best < 0 || pos < best {
				best = pos
			}
		}
	}
	return best, best >= 0
}

// optionalSectionStart returns the position of the first optional-section
// marker in normalized text, or -1 when the text has none.
func optionalSectionStart(text string) int {
	first := -1
	for _, marker := range optionalMarkers {
		if pos := strings.Index(text, " "+marker+" "); pos >= 0 {
			if first < 0 || pos < first {
				first = pos
			}
		}
	}
	return first
}

// sectionHeadings are the labels that terminate a captured section.
var sectionHeadings = []string{
	"experience", "work experience", "professional experience",
	"education", "skills", "projects", "certifications", "summary",
	"requirements", "qualifications", "responsibilities", "about",
}

// captureSection returns the text under a heading containing the given
// keyword, up to the next recognized heading. Returns "" when the document
// has no such section.
func captureSection(text, keyword string) string {
	lines := strings.Split(text, "\n")
	var captured []string
	capturing := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		normalized := matching.Normalize(strings.Trim(trimmed, ":"))

		if isHeading(normalized) {
			if capturing {
				break
			}
			if strings.Contains(normalized, keyword) {
				capturing = true
			}
			continue
		}

		if capturing && trimmed != "" {
			captured = append(captured, trimmed)
		}
	}

	return strings.Join(captured, " ")
}

// isHeading reports whether a normalized line looks like a section heading.
func isHeading(normalized string) bool {
	if normalized == "" || len(normalized) > 40 {
		return false
	}
	for _, h := range sectionHeadings {
		if normalized == h || strings.HasSuffix(normalized, " "+h) {
			return true
		}
	}
	return false
}
