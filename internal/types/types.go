package types

// CandidateSkill represents a single skill in a candidate's profile
type CandidateSkill struct {
	Name        string `json:"name"`
	Proficiency int    `json:"proficiency,omitempty"` // 0-100, 0 means unknown
}

// CandidateProfile represents a candidate's extracted skill set
type CandidateProfile struct {
	Skills     []CandidateSkill `json:"skills"`
	Experience string           `json:"experience,omitempty"`
	Education  string           `json:"education,omitempty"`
}

// SkillRequirement represents a single skill a job asks for
type SkillRequirement struct {
	Skill    string `json:"skill"`
	Required bool   `json:"required"`
	Category string `json:"category,omitempty"` // free-text grouping, e.g. "Frontend"
}

// JobRequirements represents the skill requirements extracted from a job posting
type JobRequirements struct {
	Skills     []SkillRequirement `json:"skills"`
	Experience string             `json:"experience,omitempty"`
	Education  string             `json:"education,omitempty"`
}

// SkillMatch represents the comparison outcome for one job requirement
type SkillMatch struct {
	Skill    string `json:"skill"`
	Required bool   `json:"required"`
	Match    bool   `json:"match"`
	Score    int    `json:"score"` // candidate proficiency if matched, else 0
	Category string `json:"category,omitempty"`
}

// RequirementComparison represents a free-text requirement checked against the candidate
type RequirementComparison struct {
	Required  string `json:"required"`
	Candidate string `json:"candidate"`
	Match     bool   `json:"match"`
}

// MatchResult represents the complete output of scoring one candidate against one job
type MatchResult struct {
	OverallScore     int                   `json:"overallScore"` // 0-100
	RequiredCoverage float64               `json:"requiredCoverage"`
	BonusCoverage    float64               `json:"bonusCoverage"`
	SkillMatches     []SkillMatch          `json:"skillMatches"`
	MatchingSkills   []string              `json:"matchingSkills"`
	MissingSkills    []string              `json:"missingSkills"` // unmatched required skills only
	Strengths        []string              `json:"strengths"`
	Gaps             []string              `json:"gaps"`
	Recommendations  []string              `json:"recommendations"`
	Experience       RequirementComparison `json:"experience"`
	Education        RequirementComparison `json:"education"`
}

// MatchInput represents the input for scoring a structured candidate against a job
type MatchInput struct {
	Candidate *CandidateProfile `json:"candidate"`
	Job       *JobRequirements  `json:"job"`
}

// FitInput represents the input for scoring raw resume text against a job description
type FitInput struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// FitOutput represents the output of a fit request: what was extracted plus the match
type FitOutput struct {
	ExtractedProfile      CandidateProfile `json:"extractedProfile"`
	ExtractedRequirements JobRequirements  `json:"extractedRequirements"`
	Match                 MatchResult      `json:"match"`
}

// MatchRecord represents a persisted match history entry
type MatchRecord struct {
	ID               string   `json:"id"`
	CreatedAt        string   `json:"createdAt"` // RFC 3339
	Source           string   `json:"source"`    // "api" or "cli"
	OverallScore     int      `json:"overallScore"`
	RequiredCoverage float64  `json:"requiredCoverage"`
	BonusCoverage    float64  `json:"bonusCoverage"`
	MatchingSkills   []string `json:"matchingSkills"`
	MissingSkills    []string `json:"missingSkills"`
}
