// Package pipeline sequences the three retrieval stages: similarity search,
// relevance filtering, grounded summarization. Each stage runs under its own
// timeout; the orchestrator never reinterprets a stage's error kind, only
// attaches timeout or cancellation framing when the stage budget itself ran
// out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/logger"
	"github.com/kailas-cloud/econsult/internal/metrics"
)

// Timeouts are the per-stage budgets.
type Timeouts struct {
	Search    time.Duration
	Relevancy time.Duration
	Summary   time.Duration
}

// Service orchestrates the retrieval pipeline.
type Service struct {
	search   Searcher
	filter   Filterer
	summary  Summarizer
	timeouts Timeouts
}

// New creates a pipeline service.
func New(search Searcher, filter Filterer, summary Summarizer, timeouts Timeouts) *Service {
	return &Service{search: search, filter: filter, summary: summary, timeouts: timeouts}
}

// Run executes the pipeline for one query. The four-way result contract:
// (Outcome{StatusOK}, nil), (Outcome{StatusEmptyResults}, nil),
// (Outcome{StatusNoRelevant}, nil), or (zero, error) carrying the stage's
// error kind.
func (s *Service) Run(ctx context.Context, q domain.Query) (Outcome, error) {
	log := logger.FromContext(ctx)

	candidates, err := runStage(ctx, s.timeouts.Search, "search",
		func(stageCtx context.Context) ([]domain.Candidate, error) {
			return s.search.Search(stageCtx, q.Text())
		})
	if err != nil {
		metrics.PipelineRequestsTotal.WithLabelValues("error").Inc()
		return Outcome{}, err
	}

	if len(candidates) == 0 {
		log.Info("no candidates found", zap.String("query", q.Text()))
		metrics.PipelineRequestsTotal.WithLabelValues(string(StatusEmptyResults)).Inc()
		return Outcome{Status: StatusEmptyResults}, nil
	}

	relevant, err := runStage(ctx, s.timeouts.Relevancy, "relevancy",
		func(stageCtx context.Context) ([]domain.Source, error) {
			return s.filter.Filter(stageCtx, q.Text(), candidates, q.Instructions())
		})
	if err != nil {
		metrics.PipelineRequestsTotal.WithLabelValues("error").Inc()
		return Outcome{}, err
	}

	if len(relevant) == 0 {
		log.Info("no relevant content found", zap.String("query", q.Text()))
		metrics.PipelineRequestsTotal.WithLabelValues(string(StatusNoRelevant)).Inc()
		return Outcome{Status: StatusNoRelevant, Message: NoRelevantMessage}, nil
	}

	result, err := runStage(ctx, s.timeouts.Summary, "summary",
		func(stageCtx context.Context) (domain.Summary, error) {
			return s.summary.Summarize(stageCtx, q.Text(), relevant, q.Instructions())
		})
	if err != nil {
		metrics.PipelineRequestsTotal.WithLabelValues("error").Inc()
		return Outcome{}, err
	}

	metrics.PipelineRequestsTotal.WithLabelValues(string(StatusOK)).Inc()
	return Outcome{Status: StatusOK, Summary: result}, nil
}

// runStage executes fn under its own timeout and applies error framing.
func runStage[T any](
	ctx context.Context, timeout time.Duration, name string,
	fn func(stageCtx context.Context) (T, error),
) (T, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(stageCtx)
	metrics.PipelineStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		var zero T
		return zero, frameStageErr(ctx, name, err)
	}
	return result, nil
}

// frameStageErr attaches timeout/cancellation framing without collapsing the
// stage's own error kind.
func frameStageErr(parent context.Context, name string, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s stage: %w", domain.ErrCancelled, name, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s stage: %w", domain.ErrTimeout, name, err)
	default:
		return fmt.Errorf("%s stage: %w", name, err)
	}
}
