package db

import (
	"context"
	"time"
)

// Store is the document-store facade the pipeline depends on. Consumers use
// the narrow sub-interfaces; the facade exists for the pool manager, which
// owns the full connection lifecycle.
type Store interface {
	Pinger
	KVStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity. Used as the pool health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations (persisted settings).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Searcher runs vector similarity queries over an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName     string
	FieldPath     string // vector field name in the index
	Vector        []float32
	K             int // number of nearest neighbours to return
	NumCandidates int // candidates evaluated per shard (EF_RUNTIME)
	ReturnFields  []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
