package matching

import "strings"

// Normalize canonicalizes a skill label for comparison: trims surrounding
// whitespace, case-folds, and collapses runs of inner whitespace to a
// single space. "  React " and "react" normalize to the same label.
func Normalize(skill string) string {
	return strings.Join(strings.Fields(strings.ToLower(skill)), " ")
}

// resolveAlias maps a normalized label through the synonym table, if any.
// Alias keys and values are expected to be normalized already.
func (s *Scorer) resolveAlias(normalized string) string {
	if canonical, ok := s.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// canonical normalizes a raw skill label and resolves synonyms.
func (s *Scorer) canonical(skill string) string {
	return s.resolveAlias(Normalize(skill))
}
