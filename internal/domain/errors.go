package domain

import "errors"

var (
	// ErrEncoder signals that the embedding model is unavailable or inference failed.
	ErrEncoder = errors.New("encoder error")
	// ErrDatabase signals a connection, query, or result-materialization failure
	// against the document store.
	ErrDatabase = errors.New("database error")
	// ErrConfiguration signals missing or invalid required configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrVectorSearch signals a search-stage failure with no narrower kind.
	ErrVectorSearch = errors.New("vector search error")
	// ErrRelevancy signals a failed relevance-filter model call.
	ErrRelevancy = errors.New("relevancy check error")
	// ErrSummary signals a failed summarization model call.
	ErrSummary = errors.New("summary error")
	// ErrNoSources signals summarization attempted over zero grounding sources.
	ErrNoSources = errors.New("no relevant sources to summarize")
	// ErrTimeout signals a stage exceeded its allotted budget.
	ErrTimeout = errors.New("operation timed out")
	// ErrCancelled signals an operation cancelled mid-flight.
	ErrCancelled = errors.New("operation cancelled")
)
