package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/econsult/internal/domain"
)

// --- Mocks ---

type mockSearcher struct {
	candidates []domain.Candidate
	err        error
	delay      time.Duration
}

func (m *mockSearcher) Search(ctx context.Context, _ string) ([]domain.Candidate, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.candidates, m.err
}

type mockFilterer struct {
	relevant []domain.Source
	err      error
	called   bool
	lastCand []domain.Candidate
}

func (m *mockFilterer) Filter(
	_ context.Context, _ string, candidates []domain.Candidate, _ string,
) ([]domain.Source, error) {
	m.called = true
	m.lastCand = candidates
	return m.relevant, m.err
}

type mockSummarizer struct {
	summary domain.Summary
	err     error
	called  bool
}

func (m *mockSummarizer) Summarize(
	_ context.Context, _ string, _ []domain.Source, _ string,
) (domain.Summary, error) {
	m.called = true
	return m.summary, m.err
}

func defaultTimeouts() Timeouts {
	return Timeouts{
		Search:    30 * time.Second,
		Relevancy: 30 * time.Second,
		Summary:   60 * time.Second,
	}
}

func mustQuery(t *testing.T, text, instructions string) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(text, instructions)
	if err != nil {
		t.Fatalf("NewQuery() error = %v", err)
	}
	return q
}

func testCandidates() []domain.Candidate {
	return []domain.Candidate{
		{Key: "doc:1", Score: 0.9, Fields: map[string]string{
			"title": "Hoest", "url": "https://example.org/hoest", "content": "Over hoesten.",
		}},
	}
}

func TestRun_HappyPath(t *testing.T) {
	search := &mockSearcher{candidates: testCandidates()}
	filter := &mockFilterer{relevant: []domain.Source{
		{Title: "Hoest", URL: "https://example.org/hoest", Content: "Over hoesten."},
	}}
	summarize := &mockSummarizer{summary: domain.Summary{
		Text:    "Bij langdurige hoest...",
		Sources: []domain.Source{{Title: "Hoest", URL: "https://example.org/hoest"}},
	}}

	svc := New(search, filter, summarize, defaultTimeouts())
	out, err := svc.Run(context.Background(), mustQuery(t, "Wat kan ik doen tegen langdurige hoest?", ""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Status != StatusOK {
		t.Fatalf("status = %q, want ok", out.Status)
	}
	if out.Summary.Text != "Bij langdurige hoest..." {
		t.Errorf("summary = %q", out.Summary.Text)
	}
	if len(filter.lastCand) != 1 {
		t.Errorf("filter received %d candidates", len(filter.lastCand))
	}
}

func TestRun_EmptyResults(t *testing.T) {
	search := &mockSearcher{}
	filter := &mockFilterer{}
	summarize := &mockSummarizer{}

	svc := New(search, filter, summarize, defaultTimeouts())
	out, err := svc.Run(context.Background(), mustQuery(t, "volstrekt onbekend onderwerp", ""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Status != StatusEmptyResults {
		t.Fatalf("status = %q, want empty_results", out.Status)
	}
	if filter.called || summarize.called {
		t.Error("later stages must not run without candidates")
	}
}

func TestRun_NoRelevant(t *testing.T) {
	search := &mockSearcher{candidates: testCandidates()}
	filter := &mockFilterer{relevant: nil}
	summarize := &mockSummarizer{}

	svc := New(search, filter, summarize, defaultTimeouts())
	out, err := svc.Run(context.Background(), mustQuery(t, "vraag", ""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Status != StatusNoRelevant {
		t.Fatalf("status = %q, want no_relevant", out.Status)
	}
	if out.Message != NoRelevantMessage {
		t.Errorf("message = %q", out.Message)
	}
	if summarize.called {
		t.Error("summarizer must not run when nothing is relevant")
	}
}

func TestRun_StageErrorKindsPreserved(t *testing.T) {
	tests := []struct {
		name      string
		search    *mockSearcher
		filter    *mockFilterer
		summarize *mockSummarizer
		wantErr   error
	}{
		{
			name:      "search database error",
			search:    &mockSearcher{err: domain.ErrDatabase},
			filter:    &mockFilterer{},
			summarize: &mockSummarizer{},
			wantErr:   domain.ErrDatabase,
		},
		{
			name:      "search encoder error",
			search:    &mockSearcher{err: domain.ErrEncoder},
			filter:    &mockFilterer{},
			summarize: &mockSummarizer{},
			wantErr:   domain.ErrEncoder,
		},
		{
			name:      "relevancy error",
			search:    &mockSearcher{candidates: testCandidates()},
			filter:    &mockFilterer{err: domain.ErrRelevancy},
			summarize: &mockSummarizer{},
			wantErr:   domain.ErrRelevancy,
		},
		{
			name:   "summary error",
			search: &mockSearcher{candidates: testCandidates()},
			filter: &mockFilterer{relevant: []domain.Source{
				{URL: "https://example.org/hoest"},
			}},
			summarize: &mockSummarizer{err: domain.ErrSummary},
			wantErr:   domain.ErrSummary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(tt.search, tt.filter, tt.summarize, defaultTimeouts())
			_, err := svc.Run(context.Background(), mustQuery(t, "vraag", ""))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_StageTimeout(t *testing.T) {
	search := &mockSearcher{delay: 200 * time.Millisecond}
	timeouts := defaultTimeouts()
	timeouts.Search = 10 * time.Millisecond

	svc := New(search, &mockFilterer{}, &mockSummarizer{}, timeouts)
	_, err := svc.Run(context.Background(), mustQuery(t, "vraag", ""))
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if errors.Is(err, domain.ErrCancelled) {
		t.Error("stage timeout must not be reported as cancellation")
	}
}

func TestRun_ParentCancellation(t *testing.T) {
	search := &mockSearcher{delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	svc := New(search, &mockFilterer{}, &mockSummarizer{}, defaultTimeouts())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Run(ctx, mustQuery(t, "vraag", ""))
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("error = %v, want ErrCancelled", err)
	}
}
