package domain

// Well-known candidate document fields in the store.
const (
	FieldTitle   = "title"
	FieldURL     = "url"
	FieldContent = "content"
)

// Candidate is a document returned by similarity search, not yet
// relevance-checked. All field values are text; the shape mirrors whatever
// the store returned for the hit.
type Candidate struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// Title returns the document title field.
func (c Candidate) Title() string { return c.Fields[FieldTitle] }

// URL returns the document url field.
func (c Candidate) URL() string { return c.Fields[FieldURL] }

// Content returns the document content field.
func (c Candidate) Content() string { return c.Fields[FieldContent] }

// Source is a relevance-confirmed view of a candidate, restricted to the
// fields the summarizer may cite.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SourceFromCandidate projects a candidate down to its citable fields.
func SourceFromCandidate(c Candidate) Source {
	return Source{Title: c.Title(), URL: c.URL(), Content: c.Content()}
}

// Summary is the final pipeline product: the patient-facing answer and the
// sources actually used to produce it.
type Summary struct {
	Text    string
	Sources []Source
}

// SubsetOf reports whether every source in sources appears in allowed,
// matched by URL (falling back to title when the URL is empty). This is the
// grounding check: generated output may only cite what it was given.
func SubsetOf(sources, allowed []Source) bool {
	for _, s := range sources {
		if !containsSource(allowed, s) {
			return false
		}
	}
	return true
}

// IntersectSources returns the cited sources that appear in allowed,
// preserving citation order. The kept elements come from allowed, not from
// sources: a model may cite a real URL while rewriting the title or content,
// and only the actual candidate data may reach the caller.
func IntersectSources(sources, allowed []Source) []Source {
	kept := make([]Source, 0, len(sources))
	for _, s := range sources {
		if match, ok := findSource(allowed, s); ok {
			kept = append(kept, match)
		}
	}
	return kept
}

func containsSource(set []Source, s Source) bool {
	_, ok := findSource(set, s)
	return ok
}

func findSource(set []Source, s Source) (Source, bool) {
	for _, a := range set {
		if s.URL != "" && a.URL == s.URL {
			return a, true
		}
		if s.URL == "" && a.Title == s.Title {
			return a, true
		}
	}
	return Source{}, false
}
