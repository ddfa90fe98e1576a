// Package search implements the vector similarity stage: embed the query,
// run a KNN lookup against the document index, and materialize the hits into
// candidate documents.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/db"
	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/logger"
)

// candidateFields are the document fields requested from the index. The
// vector itself is never pulled back.
var candidateFields = []string{domain.FieldTitle, domain.FieldURL, domain.FieldContent}

// Stage runs vector similarity search.
type Stage struct {
	store  StoreProvider
	embed  EmbedderProvider
	params Params
}

// New creates a search stage.
func New(store StoreProvider, embed EmbedderProvider, params Params) *Stage {
	return &Stage{store: store, embed: embed, params: params}
}

// Search returns candidate documents for the query, ordered by similarity.
// An empty result is a legitimate outcome, not an error. Each failure mode
// maps to its narrowest error kind: encoding to ErrEncoder, parameter
// problems to ErrConfiguration, store failures to ErrDatabase.
func (s *Stage) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	log := logger.FromContext(ctx)

	if err := s.validateParams(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	store, err := s.store.Acquire(ctx)
	if err != nil {
		// Pool manager already wraps with ErrDatabase.
		return nil, fmt.Errorf("acquire store: %w", err)
	}

	embedder, err := s.embed.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire embedder: %w", err)
	}

	embResult, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %w", domain.ErrEncoder, err)
	}

	result, err := store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:     s.params.Index,
		FieldPath:     s.params.VectorField,
		Vector:        embResult.Embedding,
		K:             s.params.Limit,
		NumCandidates: s.params.NumCandidates,
		ReturnFields:  candidateFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %w", domain.ErrDatabase, err)
	}

	candidates, err := materialize(result)
	if err != nil {
		return nil, fmt.Errorf("%w: materialize results: %w", domain.ErrDatabase, err)
	}

	log.Info("vector search completed",
		zap.Int("candidates", len(candidates)),
		zap.String("index", s.params.Index),
	)
	return candidates, nil
}

func (s *Stage) validateParams() error {
	if s.params.Index == "" {
		return fmt.Errorf("search index name is empty")
	}
	if s.params.VectorField == "" {
		return fmt.Errorf("vector field path is empty")
	}
	if s.params.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", s.params.Limit)
	}
	return nil
}

// materialize converts store entries into candidates with a uniform text
// shape. A hit with no usable fields at all indicates a malformed index
// entry and fails the batch.
func materialize(result *db.SearchResult) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if len(entry.Fields) == 0 {
			return nil, fmt.Errorf("hit %s has no fields", entry.Key)
		}
		candidates = append(candidates, domain.Candidate{
			Key:    entry.Key,
			Score:  entry.Score,
			Fields: entry.Fields,
		})
	}
	return candidates, nil
}
