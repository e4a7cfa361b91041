package extract

import (
	"encoding/json"
	"os"
	"sync"

	apperrors "skillmatch/internal/errors"
	"skillmatch/internal/matching"
)

// TaxonomyEntry describes one known skill: its canonical name, a free-text
// category, and the aliases it may appear under in raw text.
type TaxonomyEntry struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Taxonomy is the set of skills the keyword extractor can recognize.
// It is safe for concurrent use; Reload swaps the entry set atomically.
type Taxonomy struct {
	mu      sync.RWMutex
	path    string
	entries []TaxonomyEntry
	// alias (normalized) -> index into entries
	index map[string]int
}

// builtinTaxonomy is the fallback skill set used when no taxonomy file is
// configured or the configured file cannot be read at startup.
var builtinTaxonomy = []TaxonomyEntry{
	{Name: "Python", Category: "Languages"},
	{Name: "Java", Category: "Languages"},
	{Name: "JavaScript", Category: "Languages", Aliases: []string{"JS", "ECMAScript"}},
	{Name: "TypeScript", Category: "Languages", Aliases: []string{"TS"}},
	{Name: "Go", Category: "Languages", Aliases: []string{"Golang"}},
	{Name: "C++", Category: "Languages"},
	{Name: "C#", Category: "Languages"},
	{Name: "Ruby", Category: "Languages"},
	{Name: "PHP", Category: "Languages"},
	{Name: "Rust", Category: "Languages"},
	{Name: "Kotlin", Category: "Languages"},
	{Name: "Swift", Category: "Languages"},
	{Name: "SQL", Category: "Data"},
	{Name: "MySQL", Category: "Data"},
	{Name: "PostgreSQL", Category: "Data", Aliases: []string{"Postgres"}},
	{Name: "MongoDB", Category: "Data", Aliases: []string{"Mongo"}},
	{Name: "Redis", Category: "Data"},
	{Name: "Elasticsearch", Category: "Data"},
	{Name: "Kafka", Category: "Data"},
	{Name: "React", Category: "Frontend", Aliases: []string{"React.js", "ReactJS"}},
	{Name: "Angular", Category: "Frontend"},
	{Name: "Vue", Category: "Frontend", Aliases: []string{"Vue.js", "VueJS"}},
	{Name: "HTML", Category: "Frontend"},
	{Name: "CSS", Category: "Frontend"},
	{Name: "Node.js", Category: "Backend", Aliases: []string{"NodeJS", "Node"}},
	{Name: "Django", Category: "Backend"},
	{Name: "Flask", Category: "Backend"},
	{Name: "FastAPI", Category: "Backend"},
	{Name: "Spring", Category: "Backend", Aliases: []string{"Spring Boot"}},
	{Name: "GraphQL", Category: "Backend"},
	{Name: "REST", Category: "Backend", Aliases: []string{"REST API", "RESTful"}},
	{Name: "gRPC", Category: "Backend"},
	{Name: "AWS", Category: "Cloud", Aliases: []string{"Amazon Web Services"}},
	{Name: "Azure", Category: "Cloud"},
	{Name: "GCP", Category: "Cloud", Aliases: []string{"Google Cloud"}},
	{Name: "Docker", Category: "DevOps"},
	{Name: "Kubernetes", Category: "DevOps", Aliases: []string{"K8s"}},
	{Name: "Terraform", Category: "DevOps"},
	{Name: "Ansible", Category: "DevOps"},
	{Name: "Jenkins", Category: "DevOps"},
	{Name: "CI/CD", Category: "DevOps"},
	{Name: "Git", Category: "Tools"},
	{Name: "Linux", Category: "Tools"},
	{Name: "Machine Learning", Category: "AI", Aliases: []string{"ML"}},
	{Name: "Deep Learning", Category: "AI"},
	{Name: "TensorFlow", Category: "AI"},
	{Name: "PyTorch", Category: "AI"},
	{Name: "NLP", Category: "AI", Aliases: []string{"Natural Language Processing"}},
	{Name: "Data Analysis", Category: "Data"},
	{Name: "Pandas", Category: "Data"},
	{Name: "NumPy", Category: "Data"},
	{Name: "Agile", Category: "Process", Aliases: []string{"Scrum"}},
	{Name: "Project Management", Category: "Process"},
	{Name: "Communication", Category: "Soft Skills"},
	{Name: "Leadership", Category: "Soft Skills"},
	{Name: "Teamwork", Category: "Soft Skills"},
	{Name: "Problem Solving", Category: "Soft Skills"},
}

// LoadTaxonomy builds a taxonomy from the given file. An empty path yields
// the built-in skill set. A missing or unreadable file at startup is an
// error; Reload on a running taxonomy keeps the previous entries instead.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	t := &Taxonomy{path: path}

	if path == "" {
		t.setEntries(builtinTaxonomy)
		return t, nil
	}

	entries, err := readTaxonomyFile(path)
	if err != nil {
		return nil, err
	}
	t.setEntries(entries)
	return t, nil
}

// readTaxonomyFile parses a taxonomy JSON file.
func readTaxonomyFile(path string) ([]TaxonomyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable,
			"Failed to read taxonomy file", err).WithContext("path", path)
	}

	var entries []TaxonomyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.NewIOError(apperrors.ErrCodeInvalidFormat,
			"Taxonomy file is not valid JSON", err).WithContext("path", path)
	}
	if len(entries) == 0 {
		return nil, apperrors.NewIOError(apperrors.ErrCodeInvalidFormat,
			"Taxonomy file contains no entries", nil).WithContext("path", path)
	}

	return entries, nil
}

// Reload re-reads the taxonomy file and swaps the entry set. The previous
// entries are kept when the file is missing or malformed.
func (t *Taxonomy) Reload() error {
	if t.path == "" {
		return nil // built-in taxonomy has nothing to reload
	}

	entries, err := readTaxonomyFile(t.path)
	if err != nil {
		return err
	}

	t.setEntries(entries)
	return nil
}

// setEntries installs a new entry set and rebuilds the alias index.
func (t *Taxonomy) setEntries(entries []TaxonomyEntry) {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		if name := matching.Normalize(e.Name); name != "" {
			if _, exists := index[name]; !exists {
				index[name] = i
			}
		}
		for _, alias := range e.Aliases {
			if a := matching.Normalize(alias); a != "" {
				if _, exists := index[a]; !exists {
					index[a] = i
				}
			}
		}
	}

	t.mu.Lock()
	t.entries = entries
	t.index = index
	t.mu.Unlock()
}

// Entries returns a snapshot of the current entry set.
func (t *Taxonomy) Entries() []TaxonomyEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries
}

// Len returns the number of entries in the taxonomy.
func (t *Taxonomy) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Path returns the backing file path ("" for the built-in set).
func (t *Taxonomy) Path() string {
	return t.path
}

// Lookup resolves a normalized label (name or alias) to its taxonomy entry.
func (t *Taxonomy) Lookup(normalized string) (TaxonomyEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i, ok := t.index[normalized]; ok {
		return t.entries[i], true
	}
	return TaxonomyEntry{}, false
}
