package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/econsult/internal/db"
	"github.com/kailas-cloud/econsult/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	searchResult *db.SearchResult
	searchErr    error
	lastQuery    *db.KNNQuery
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

func (m *mockStore) Close() {}

func (m *mockStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

func (m *mockStore) Get(_ context.Context, _ string) ([]byte, error) { return nil, nil }

func (m *mockStore) Set(_ context.Context, _ string, _ []byte) error { return nil }

func (m *mockStore) Del(_ context.Context, _ string) error { return nil }

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	return m.searchResult, m.searchErr
}

type mockStoreProvider struct {
	store db.Store
	err   error
}

func (m *mockStoreProvider) Acquire(_ context.Context) (db.Store, error) {
	return m.store, m.err
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, PromptTokens: 3, TotalTokens: 3}, nil
}

type mockEmbedderProvider struct {
	embedder domain.Embedder
	err      error
}

func (m *mockEmbedderProvider) Acquire(_ context.Context) (domain.Embedder, error) {
	return m.embedder, m.err
}

func defaultParams() Params {
	return Params{
		Index:         "idx:medical_content",
		VectorField:   "content_vector",
		NumCandidates: 150,
		Limit:         10,
	}
}

func TestSearch_Success(t *testing.T) {
	store := &mockStore{
		searchResult: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "doc:1", Score: 0.9, Fields: map[string]string{
					"title": "Hoest", "url": "https://example.org/hoest", "content": "tekst",
				}},
				{Key: "doc:2", Score: 0.7, Fields: map[string]string{
					"title": "Keelpijn", "url": "https://example.org/keelpijn", "content": "tekst",
				}},
			},
		},
	}
	stage := New(
		&mockStoreProvider{store: store},
		&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1, 0.2}}},
		defaultParams(),
	)

	candidates, err := stage.Search(context.Background(), "langdurige hoest")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Title() != "Hoest" || candidates[0].Score != 0.9 {
		t.Errorf("unexpected first candidate: %+v", candidates[0])
	}

	q := store.lastQuery
	if q.IndexName != "idx:medical_content" || q.FieldPath != "content_vector" {
		t.Errorf("unexpected query target: %+v", q)
	}
	if q.K != 10 || q.NumCandidates != 150 {
		t.Errorf("unexpected query sizing: k=%d candidates=%d", q.K, q.NumCandidates)
	}
	if len(q.ReturnFields) != 3 {
		t.Errorf("unexpected return fields: %v", q.ReturnFields)
	}
}

func TestSearch_EmptyResultIsNotError(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{}}
	stage := New(
		&mockStoreProvider{store: store},
		&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1}}},
		defaultParams(),
	)

	candidates, err := stage.Search(context.Background(), "onbekende vraag")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestSearch_ErrorKinds(t *testing.T) {
	healthyStore := func() *mockStore {
		return &mockStore{searchResult: &db.SearchResult{}}
	}

	tests := []struct {
		name    string
		stage   *Stage
		wantErr error
	}{
		{
			name: "invalid params",
			stage: New(
				&mockStoreProvider{store: healthyStore()},
				&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1}}},
				Params{},
			),
			wantErr: domain.ErrConfiguration,
		},
		{
			name: "store acquire failure keeps pool wrapping",
			stage: New(
				&mockStoreProvider{err: domain.ErrDatabase},
				&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1}}},
				defaultParams(),
			),
			wantErr: domain.ErrDatabase,
		},
		{
			name: "embedder acquire failure",
			stage: New(
				&mockStoreProvider{store: healthyStore()},
				&mockEmbedderProvider{err: domain.ErrEncoder},
				defaultParams(),
			),
			wantErr: domain.ErrEncoder,
		},
		{
			name: "embedding failure",
			stage: New(
				&mockStoreProvider{store: healthyStore()},
				&mockEmbedderProvider{embedder: &mockEmbedder{err: errors.New("model offline")}},
				defaultParams(),
			),
			wantErr: domain.ErrEncoder,
		},
		{
			name: "knn failure",
			stage: New(
				&mockStoreProvider{store: &mockStore{searchErr: errors.New("index missing")}},
				&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1}}},
				defaultParams(),
			),
			wantErr: domain.ErrDatabase,
		},
		{
			name: "malformed hit",
			stage: New(
				&mockStoreProvider{store: &mockStore{searchResult: &db.SearchResult{
					Total:   1,
					Entries: []db.SearchEntry{{Key: "doc:broken"}},
				}}},
				&mockEmbedderProvider{embedder: &mockEmbedder{vec: []float32{0.1}}},
				defaultParams(),
			),
			wantErr: domain.ErrDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.stage.Search(context.Background(), "vraag")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
