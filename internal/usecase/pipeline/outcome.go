package pipeline

import "github.com/kailas-cloud/econsult/internal/domain"

// Status is the terminal state of a pipeline run.
type Status string

const (
	// StatusOK means the full pipeline ran and produced a summary.
	StatusOK Status = "ok"
	// StatusEmptyResults means similarity search found no candidates at all.
	StatusEmptyResults Status = "empty_results"
	// StatusNoRelevant means candidates were found but none passed the
	// relevance filter. This is a safe outcome, not an error.
	StatusNoRelevant Status = "no_relevant"
)

// NoRelevantMessage is the fixed, patient-safe text returned when the filter
// keeps nothing. It must never be replaced by internal error text.
const NoRelevantMessage = "Geen relevante medische informatie gevonden voor je vraag. " +
	"Probeer je vraag anders te formuleren of neem contact op met je huisarts."

// Outcome is the result of a successful (non-failing) pipeline run.
type Outcome struct {
	Status  Status
	Summary domain.Summary // populated only for StatusOK
	Message string         // populated only for StatusNoRelevant
}
