package extract

// DefaultSystemPrompt is the system instruction shared by both extraction
// operations. A config override (extract.gemini.systemPrompt) replaces it.
const DefaultSystemPrompt = `You are an expert HR analyst specializing in structured skill extraction. Your core principles are:

- NEVER invent skills that are not present in the source text
- Every extracted skill must be directly traceable to the source material
- Use canonical skill names (e.g. "JavaScript" not "javascript programming")
- Keep categories short and conventional (Languages, Frontend, Backend, Data, Cloud, DevOps, AI, Tools, Process, Soft Skills)
- Provide honest, evidence-based proficiency estimates`

// DefaultProfilePrompt is the user prompt template for resume extraction.
// The single %s placeholder receives the resume text.
const DefaultProfilePrompt = `Extract the candidate's skill profile from the resume below.

**Tasks:**

1. **Skills**:
   List every professional skill explicitly present in the resume. For each, estimate a proficiency from 0 to 100 based on the evidence (years of use, seniority, depth of projects). Use 0 when the resume gives no basis for an estimate.

2. **Experience**:
   Summarize the candidate's work experience in one or two sentences (roles, years, domains).

3. **Education**:
   Summarize the candidate's education in one sentence (highest degree, field).

**Resume:**
%s`

// DefaultRequirementsPrompt is the user prompt template for job description
// extraction. The single %s placeholder receives the job description text.
const DefaultRequirementsPrompt = `Extract the skill requirements from the job description below.

**Tasks:**

1. **Skills**:
   List every skill the posting asks for. Mark each as required or optional: skills listed under "nice to have", "preferred", "bonus" or "plus" sections are optional, everything else is required. Assign each a short category.

2. **Experience**:
   State the experience requirement in one sentence, or leave it empty if the posting has none.

3. **Education**:
   State the education requirement in one sentence, or leave it empty if the posting has none.

**Job Description:**
%s`

// resolvePrompt selects the correct prompt string: a config override wins,
// otherwise the hardcoded default applies.
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
