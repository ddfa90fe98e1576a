package chi

import (
	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/usecase/pipeline"
	"github.com/kailas-cloud/econsult/internal/usecase/settings"
)

// Error codes returned to clients.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeTimeout      = "timeout"
	codeCancelled    = "cancelled"
	codeUnavailable  = "service_unavailable"
	codeInternal     = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the inbound body for POST /api/search.
type SearchRequest struct {
	Query              string `json:"query"`
	DoctorInstructions string `json:"doctor_instructions,omitempty"`
}

// SourcePayload is one cited source in a response.
type SourcePayload struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SummaryPayload is the generated answer plus its citations.
type SummaryPayload struct {
	Summary     string          `json:"summary"`
	SourcesUsed []SourcePayload `json:"sources_used"`
}

// SearchResponse is the outbound body for POST /api/search. Status mirrors
// the pipeline's four-way outcome; failures use ErrorResponse instead.
type SearchResponse struct {
	Status             string          `json:"status"`
	Query              string          `json:"query"`
	DoctorInstructions string          `json:"doctor_instructions,omitempty"`
	Message            string          `json:"message,omitempty"`
	Summary            *SummaryPayload `json:"summary,omitempty"`
}

// SettingsPayload mirrors the persisted practice settings.
type SettingsPayload struct {
	DefaultSystemPrompts string `json:"default_system_prompts"`
	LastUpdated          string `json:"last_updated,omitempty"`
}

// SettingsResponse is the outbound body for the settings endpoints.
type SettingsResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Settings *SettingsPayload `json:"settings,omitempty"`
}

func searchResponseFromOutcome(req SearchRequest, out pipeline.Outcome) SearchResponse {
	resp := SearchResponse{
		Status:             string(out.Status),
		Query:              req.Query,
		DoctorInstructions: req.DoctorInstructions,
		Message:            out.Message,
	}
	if out.Status == pipeline.StatusOK {
		resp.Summary = &SummaryPayload{
			Summary:     out.Summary.Text,
			SourcesUsed: sourcesToPayload(out.Summary.Sources),
		}
	}
	return resp
}

func sourcesToPayload(sources []domain.Source) []SourcePayload {
	items := make([]SourcePayload, len(sources))
	for i, s := range sources {
		items[i] = SourcePayload{Title: s.Title, URL: s.URL, Content: s.Content}
	}
	return items
}

func settingsToPayload(s settings.Settings) *SettingsPayload {
	return &SettingsPayload{
		DefaultSystemPrompts: s.DefaultSystemPrompts,
		LastUpdated:          s.LastUpdated,
	}
}
