package econsult

// Search outcome statuses returned by the service.
const (
	StatusOK           = "ok"
	StatusEmptyResults = "empty_results"
	StatusNoRelevant   = "no_relevant"
)

// Source is one cited document in a search answer.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Summary is the generated answer plus its citations.
type Summary struct {
	Summary     string   `json:"summary"`
	SourcesUsed []Source `json:"sources_used"`
}

// SearchResult is the outcome of a search request.
// Summary is non-nil only when Status is StatusOK.
type SearchResult struct {
	Status             string   `json:"status"`
	Query              string   `json:"query"`
	DoctorInstructions string   `json:"doctor_instructions,omitempty"`
	Message            string   `json:"message,omitempty"`
	Summary            *Summary `json:"summary,omitempty"`
}

// Settings holds the practice-wide default instructions.
type Settings struct {
	DefaultSystemPrompts string `json:"default_system_prompts"`
	LastUpdated          string `json:"last_updated,omitempty"`
}

// HealthStatus is the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type settingsResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Settings *Settings `json:"settings,omitempty"`
}

type searchRequest struct {
	Query              string `json:"query"`
	DoctorInstructions string `json:"doctor_instructions,omitempty"`
}

type settingsRequest struct {
	DefaultSystemPrompts string `json:"default_system_prompts"`
}
