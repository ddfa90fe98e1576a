package pipeline

import (
	"context"

	"github.com/kailas-cloud/econsult/internal/domain"
)

// Searcher runs the vector similarity stage.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Candidate, error)
}

// Filterer runs the relevance filter stage.
type Filterer interface {
	Filter(ctx context.Context, query string, candidates []domain.Candidate, instructions string) ([]domain.Source, error)
}

// Summarizer runs the grounded summarization stage.
type Summarizer interface {
	Summarize(ctx context.Context, query string, relevant []domain.Source, instructions string) (domain.Summary, error)
}
