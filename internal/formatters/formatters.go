package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillmatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "MatchResult", &MatchTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchResult", &MatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "FitOutput", &FitTextFormatter{})
	registry.RegisterFormatter("markdown", "FitOutput", &FitMarkdownFormatter{})
	registry.RegisterFormatter("text", "CandidateProfile", &ProfileTextFormatter{})
	registry.RegisterFormatter("text", "JobRequirements", &RequirementsTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.MatchResult, *types.MatchResult:
		return "MatchResult"
	case types.FitOutput, *types.FitOutput:
		return "FitOutput"
	case types.CandidateProfile:
		return "CandidateProfile"
	case types.JobRequirements:
		return "JobRequirements"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func asMatchResult(data any) (types.MatchResult, bool) {
	switch v := data.(type) {
	case types.MatchResult:
		return v, true
	case *types.MatchResult:
		if v != nil {
			return *v, true
		}
	}
	return types.MatchResult{}, false
}

// writeMatchText renders a match result in plain text; shared by the match
// and fit formatters.
func writeMatchText(output *strings.Builder, result types.MatchResult) {
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("Required Coverage: %.0f%%\n", result.RequiredCoverage*100))
	output.WriteString(fmt.Sprintf("Bonus Coverage: %.0f%%\n\n", result.BonusCoverage*100))

	if len(result.SkillMatches) > 0 {
		output.WriteString("=== SKILL BREAKDOWN ===\n")
		for _, m := range result.SkillMatches {
			marker := "MISS"
			if m.Match {
				marker = "OK  "
			}
			kind := "optional"
			if m.Required {
				kind = "required"
			}
			output.WriteString(fmt.Sprintf("[%s] %s (%s)", marker, m.Skill, kind))
			if m.Match {
				output.WriteString(fmt.Sprintf(" proficiency %d", m.Score))
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(result.MissingSkills) > 0 {
		output.WriteString("Missing Skills:\n")
		for _, s := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.Strengths) > 0 {
		output.WriteString("Strengths:\n")
		for _, s := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.Gaps) > 0 {
		output.WriteString("Gaps:\n")
		for _, g := range result.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", g))
		}
		output.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("Recommendations:\n")
		for _, r := range result.Recommendations {
			output.WriteString(fmt.Sprintf("- %s\n", r))
		}
		output.WriteString("\n")
	}

	output.WriteString(fmt.Sprintf("Experience Requirement Met: %t\n", result.Experience.Match))
	output.WriteString(fmt.Sprintf("Education Requirement Met: %t\n", result.Education.Match))
}

// writeMatchMarkdown renders a match result as markdown; shared by the match
// and fit formatters.
func writeMatchMarkdown(output *strings.Builder, result types.MatchResult) {
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("**Required Coverage:** %.0f%%  \n", result.RequiredCoverage*100))
	output.WriteString(fmt.Sprintf("**Bonus Coverage:** %.0f%%\n\n", result.BonusCoverage*100))

	if len(result.SkillMatches) > 0 {
		output.WriteString("## Skill Breakdown\n\n")
		output.WriteString("| Skill | Required | Matched | Proficiency |\n")
		output.WriteString("|---|---|---|---|\n")
		for _, m := range result.SkillMatches {
			output.WriteString(fmt.Sprintf("| %s | %t | %t | %d |\n",
				m.Skill, m.Required, m.Match, m.Score))
		}
		output.WriteString("\n")
	}

	if len(result.MissingSkills) > 0 {
		output.WriteString("## Missing Skills\n\n")
		for _, s := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, s := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.Gaps) > 0 {
		output.WriteString("## Gaps\n\n")
		for _, g := range result.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", g))
		}
		output.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for _, r := range result.Recommendations {
			output.WriteString(fmt.Sprintf("- %s\n", r))
		}
		output.WriteString("\n")
	}

	output.WriteString(fmt.Sprintf("**Experience Requirement Met:** %t  \n", result.Experience.Match))
	output.WriteString(fmt.Sprintf("**Education Requirement Met:** %t\n", result.Education.Match))
}

// MatchTextFormatter handles text formatting for match results
type MatchTextFormatter struct{}

func (mtf *MatchTextFormatter) Format(data any) (string, error) {
	result, ok := asMatchResult(data)
	if !ok {
		return "", fmt.Errorf("expected MatchResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== MATCH RESULT ===\n\n")
	writeMatchText(&output, result)
	return output.String(), nil
}

func (mtf *MatchTextFormatter) SupportedType() string {
	return "MatchResult"
}

// MatchMarkdownFormatter handles markdown formatting for match results
type MatchMarkdownFormatter struct{}

func (mmf *MatchMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asMatchResult(data)
	if !ok {
		return "", fmt.Errorf("expected MatchResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Match Result\n\n")
	writeMatchMarkdown(&output, result)
	return output.String(), nil
}

func (mmf *MatchMarkdownFormatter) SupportedType() string {
	return "MatchResult"
}

func asFitOutput(data any) (types.FitOutput, bool) {
	switch v := data.(type) {
	case types.FitOutput:
		return v, true
	case *types.FitOutput:
		if v != nil {
			return *v, true
		}
	}
	return types.FitOutput{}, false
}

// FitTextFormatter handles text formatting for fit results
type FitTextFormatter struct{}

func (ftf *FitTextFormatter) Format(data any) (string, error) {
	result, ok := asFitOutput(data)
	if !ok {
		return "", fmt.Errorf("expected FitOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== EXTRACTED PROFILE ===\n")
	output.WriteString(fmt.Sprintf("Skills: %s\n", joinCandidateSkills(result.ExtractedProfile.Skills)))
	if result.ExtractedProfile.Experience != "" {
		output.WriteString(fmt.Sprintf("Experience: %s\n", result.ExtractedProfile.Experience))
	}
	if result.ExtractedProfile.Education != "" {
		output.WriteString(fmt.Sprintf("Education: %s\n", result.ExtractedProfile.Education))
	}
	output.WriteString("\n")

	output.WriteString("=== EXTRACTED REQUIREMENTS ===\n")
	for _, r := range result.ExtractedRequirements.Skills {
		kind := "optional"
		if r.Required {
			kind = "required"
		}
		output.WriteString(fmt.Sprintf("- %s (%s)\n", r.Skill, kind))
	}
	output.WriteString("\n")

	output.WriteString("=== MATCH RESULT ===\n\n")
	writeMatchText(&output, result.Match)
	return output.String(), nil
}

func (ftf *FitTextFormatter) SupportedType() string {
	return "FitOutput"
}

// FitMarkdownFormatter handles markdown formatting for fit results
type FitMarkdownFormatter struct{}

func (fmf *FitMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asFitOutput(data)
	if !ok {
		return "", fmt.Errorf("expected FitOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Fit Analysis\n\n")

	output.WriteString("## Extracted Profile\n\n")
	output.WriteString(fmt.Sprintf("**Skills:** %s\n\n", joinCandidateSkills(result.ExtractedProfile.Skills)))
	if result.ExtractedProfile.Experience != "" {
		output.WriteString(fmt.Sprintf("**Experience:** %s\n\n", result.ExtractedProfile.Experience))
	}
	if result.ExtractedProfile.Education != "" {
		output.WriteString(fmt.Sprintf("**Education:** %s\n\n", result.ExtractedProfile.Education))
	}

	output.WriteString("## Extracted Requirements\n\n")
	for _, r := range result.ExtractedRequirements.Skills {
		kind := "optional"
		if r.Required {
			kind = "required"
		}
		output.WriteString(fmt.Sprintf("- %s (%s)\n", r.Skill, kind))
	}
	output.WriteString("\n")

	output.WriteString("## Match\n\n")
	writeMatchMarkdown(&output, result.Match)
	return output.String(), nil
}

func (fmf *FitMarkdownFormatter) SupportedType() string {
	return "FitOutput"
}

// ProfileTextFormatter handles text formatting for extracted candidate profiles
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.CandidateProfile)
	if !ok {
		return "", fmt.Errorf("expected CandidateProfile, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== CANDIDATE PROFILE ===\n\n")
	output.WriteString("Skills:\n")
	for _, s := range profile.Skills {
		if s.Proficiency > 0 {
			output.WriteString(fmt.Sprintf("- %s (proficiency %d)\n", s.Name, s.Proficiency))
		} else {
			output.WriteString(fmt.Sprintf("- %s\n", s.Name))
		}
	}
	if profile.Experience != "" {
		output.WriteString(fmt.Sprintf("\nExperience: %s\n", profile.Experience))
	}
	if profile.Education != "" {
		output.WriteString(fmt.Sprintf("Education: %s\n", profile.Education))
	}
	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return "CandidateProfile"
}

// RequirementsTextFormatter handles text formatting for extracted job requirements
type RequirementsTextFormatter struct{}

func (rtf *RequirementsTextFormatter) Format(data any) (string, error) {
	job, ok := data.(types.JobRequirements)
	if !ok {
		return "", fmt.Errorf("expected JobRequirements, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== JOB REQUIREMENTS ===\n\n")
	for _, r := range job.Skills {
		kind := "optional"
		if r.Required {
			kind = "required"
		}
		if r.Category != "" {
			output.WriteString(fmt.Sprintf("- %s (%s, %s)\n", r.Skill, kind, r.Category))
		} else {
			output.WriteString(fmt.Sprintf("- %s (%s)\n", r.Skill, kind))
		}
	}
	if job.Experience != "" {
		output.WriteString(fmt.Sprintf("\nExperience: %s\n", job.Experience))
	}
	if job.Education != "" {
		output.WriteString(fmt.Sprintf("Education: %s\n", job.Education))
	}
	return output.String(), nil
}

func (rtf *RequirementsTextFormatter) SupportedType() string {
	return "JobRequirements"
}

func joinCandidateSkills(skills []types.CandidateSkill) string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
