package matching

import (
	"fmt"
	"math"
	"strings"

	apperrors "skillmatch/internal/errors"
	"skillmatch/internal/types"
)

// Default scoring policy. Required coverage must dominate bonus coverage;
// the exact split is configurable via Options.
const (
	DefaultRequiredWeight = 0.8
	DefaultBonusWeight    = 0.2
	DefaultProficiency    = 70
	minProficiency        = 0
	maxProficiency        = 100
)

// Options configures a Scorer. The zero value is not usable; use
// DefaultOptions or fill in every field.
type Options struct {
	// RequiredWeight and BonusWeight are combined into the overall score.
	// Both must be positive and RequiredWeight must exceed BonusWeight.
	// They are normalized to sum to 1 before use.
	RequiredWeight float64
	BonusWeight    float64

	// DefaultProficiency is assigned to matched skills the candidate did
	// not annotate with a proficiency estimate. Must be in [0,100].
	DefaultProficiency int

	// Aliases maps skill synonyms to canonical labels ("js" -> "javascript").
	// Keys and values are normalized before use.
	Aliases map[string]string
}

// DefaultOptions returns the default scoring policy with no aliases.
func DefaultOptions() Options {
	return Options{
		RequiredWeight:     DefaultRequiredWeight,
		BonusWeight:        DefaultBonusWeight,
		DefaultProficiency: DefaultProficiency,
	}
}

// Scorer computes deterministic compatibility scores between candidate
// profiles and job requirements. A Scorer is immutable after construction
// and safe for concurrent use.
type Scorer struct {
	requiredWeight     float64
	bonusWeight        float64
	defaultProficiency int
	aliases            map[string]string
}

// NewScorer validates the options and builds a Scorer.
func NewScorer(opts Options) (*Scorer, error) {
	if opts.RequiredWeight <= 0 || opts.BonusWeight <= 0 {
		return nil, apperrors.NewConfigError(
			apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("scoring weights must be positive (required=%v, bonus=%v)", opts.RequiredWeight, opts.BonusWeight),
			nil,
		)
	}
	if opts.RequiredWeight <= opts.BonusWeight {
		return nil, apperrors.NewConfigError(
			apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("required weight (%v) must exceed bonus weight (%v)", opts.RequiredWeight, opts.BonusWeight),
			nil,
		)
	}
	if opts.DefaultProficiency < minProficiency || opts.DefaultProficiency > maxProficiency {
		return nil, apperrors.NewConfigError(
			apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("default proficiency must be in [0,100], got %d", opts.DefaultProficiency),
			nil,
		)
	}

	sum := opts.RequiredWeight + opts.BonusWeight
	aliases := make(map[string]string, len(opts.Aliases))
	for from, to := range opts.Aliases {
		aliases[Normalize(from)] = Normalize(to)
	}

	return &Scorer{
		requiredWeight:     opts.RequiredWeight / sum,
		bonusWeight:        opts.BonusWeight / sum,
		defaultProficiency: opts.DefaultProficiency,
		aliases:            aliases,
	}, nil
}

// Score computes the match between a candidate and a job. It is a pure
// function: identical inputs always yield identical results, and no state
// is retained between calls. A nil candidate or job is the only error case.
func (s *Scorer) Score(candidate *types.CandidateProfile, job *types.JobRequirements) (*types.MatchResult, error) {
	if candidate == nil {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidArgument, "candidate profile is required", nil)
	}
	if job == nil {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidArgument, "job requirements are required", nil)
	}

	candidateSkills := s.indexCandidate(candidate)
	requirements := s.dedupeRequirements(job.Skills)

	var (
		skillMatches   = make([]types.SkillMatch, 0, len(requirements))
		matchingSkills = make([]string, 0, len(requirements))
		missingSkills  = make([]string, 0)

		requiredTotal, requiredMatched int
		bonusTotal, bonusMatched       int
	)

	// Matched skills grouped by category, in first-appearance order.
	categoryOrder := make([]string, 0)
	categoryHits := make(map[string][]string)

	for _, req := range requirements {
		proficiency, matched := candidateSkills[req.name]

		score := 0
		if matched {
			score = proficiency
		}

		skillMatches = append(skillMatches, types.SkillMatch{
			Skill:    req.name,
			Required: req.required,
			Match:    matched,
			Score:    score,
			Category: req.category,
		})

		if req.required {
			requiredTotal++
			if matched {
				requiredMatched++
			}
		} else {
			bonusTotal++
			if matched {
				bonusMatched++
			}
		}

		if matched {
			matchingSkills = append(matchingSkills, req.name)
			if req.category != "" {
				if _, seen := categoryHits[req.category]; !seen {
					categoryOrder = append(categoryOrder, req.category)
				}
				categoryHits[req.category] = append(categoryHits[req.category], req.name)
			}
		} else if req.required {
			missingSkills = append(missingSkills, req.name)
		}
	}

	requiredCoverage := coverage(requiredMatched, requiredTotal)
	bonusCoverage := coverage(bonusMatched, bonusTotal)

	overall := int(math.Round(100 * (s.requiredWeight*requiredCoverage + s.bonusWeight*bonusCoverage)))
	overall = clamp(overall, 0, 100)

	return &types.MatchResult{
		OverallScore:     overall,
		RequiredCoverage: requiredCoverage,
		BonusCoverage:    bonusCoverage,
		SkillMatches:     skillMatches,
		MatchingSkills:   matchingSkills,
		MissingSkills:    missingSkills,
		Strengths:        buildStrengths(categoryOrder, categoryHits),
		Gaps:             buildGaps(missingSkills),
		Recommendations:  buildRecommendations(missingSkills),
		Experience:       compareRequirement(job.Experience, candidate.Experience),
		Education:        compareRequirement(job.Education, candidate.Education),
	}, nil
}

// indexCandidate builds a canonical-name -> proficiency lookup. Duplicate
// entries keep the highest proficiency so dedup never lowers a score.
func (s *Scorer) indexCandidate(candidate *types.CandidateProfile) map[string]int {
	index := make(map[string]int, len(candidate.Skills))
	for _, skill := range candidate.Skills {
		name := s.canonical(skill.Name)
		if name == "" {
			continue
		}
		proficiency := skill.Proficiency
		if proficiency == 0 {
			proficiency = s.defaultProficiency
		}
		proficiency = clamp(proficiency, minProficiency, maxProficiency)
		if existing, ok := index[name]; !ok || proficiency > existing {
			index[name] = proficiency
		}
	}
	return index
}

type requirement struct {
	name     string
	required bool
	category string
}

// dedupeRequirements canonicalizes job requirements preserving insertion
// order. On duplicates the first occurrence wins, except that a later
// required flag upgrades an earlier optional entry.
func (s *Scorer) dedupeRequirements(reqs []types.SkillRequirement) []requirement {
	out := make([]requirement, 0, len(reqs))
	seen := make(map[string]int, len(reqs))
	for _, r := range reqs {
		name := s.canonical(r.Skill)
		if name == "" {
			continue
		}
		if i, ok := seen[name]; ok {
			if r.Required && !out[i].required {
				out[i].required = true
			}
			continue
		}
		seen[name] = len(out)
		out = append(out, requirement{name: name, required: r.Required, category: r.Category})
	}
	return out
}

// coverage returns matched/total with the vacuous-truth convention:
// an empty group counts as fully covered.
func coverage(matched, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(matched) / float64(total)
}

func buildStrengths(order []string, hits map[string][]string) []string {
	strengths := make([]string, 0, len(order))
	for _, category := range order {
		names := hits[category]
		if len(names) < 2 {
			continue
		}
		strengths = append(strengths, fmt.Sprintf("Strong %s coverage: %s", category, strings.Join(names, ", ")))
	}
	return strengths
}

func buildGaps(missing []string) []string {
	gaps := make([]string, 0, len(missing))
	for _, name := range missing {
		gaps = append(gaps, fmt.Sprintf("Missing required skill: %s", name))
	}
	return gaps
}

func buildRecommendations(missing []string) []string {
	recs := make([]string, 0, len(missing))
	for _, name := range missing {
		recs = append(recs, fmt.Sprintf("Gain hands-on experience with %s to close a required skill gap", name))
	}
	return recs
}

// compareRequirement checks a free-text requirement against the candidate's
// free-text value. An empty requirement matches anything; otherwise the
// normalized requirement must appear in the normalized candidate text.
// No semantic parsing is attempted.
func compareRequirement(required, candidate string) types.RequirementComparison {
	normReq := Normalize(required)
	normCand := Normalize(candidate)

	match := normReq == "" || normReq == normCand || strings.Contains(normCand, normReq)

	return types.RequirementComparison{
		Required:  required,
		Candidate: candidate,
		Match:     match,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
