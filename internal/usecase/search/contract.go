package search

import (
	"context"

	"github.com/kailas-cloud/econsult/internal/db"
	"github.com/kailas-cloud/econsult/internal/domain"
)

// StoreProvider hands out the shared pooled store connection.
type StoreProvider interface {
	Acquire(ctx context.Context) (db.Store, error)
}

// EmbedderProvider hands out the shared embedding model instance.
type EmbedderProvider interface {
	Acquire(ctx context.Context) (domain.Embedder, error)
}

// Params are the vector-search tuning parameters, fixed at startup.
type Params struct {
	Index         string
	VectorField   string
	NumCandidates int
	Limit         int
}
