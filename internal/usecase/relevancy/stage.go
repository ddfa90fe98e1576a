// Package relevancy implements the relevance filter stage: a language model
// subsets the search candidates down to those actually pertinent to the
// patient question. The model can only subset, never invent: returned
// sources are cross-checked against the candidate set.
package relevancy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/domain/prompt"
	"github.com/kailas-cloud/econsult/internal/logger"
)

const (
	schemaName = "content_relevancy"

	// Candidate content is truncated harder here than in summarization:
	// the model only needs enough text to judge pertinence.
	maxCandidateContentLen = 5000
)

// relevancyOutput is the structured-output schema for the filter call.
type relevancyOutput struct {
	RelevantContent []domain.Source `json:"relevant_content"`
}

// Stage filters candidates by relevance to the query.
type Stage struct {
	model     ChatModel
	prompts   *prompt.Library
	defaults  InstructionsReader
	maxTokens int
}

// New creates a relevancy stage.
func New(model ChatModel, prompts *prompt.Library, defaults InstructionsReader, maxTokens int) *Stage {
	return &Stage{model: model, prompts: prompts, defaults: defaults, maxTokens: maxTokens}
}

// Filter returns the relevant subset of candidates. An empty candidate list
// short-circuits without a model call; an empty return with nil error means
// nothing was relevant, which callers must treat as distinct from failure.
func (s *Stage) Filter(
	ctx context.Context, query string, candidates []domain.Candidate, instructions string,
) ([]domain.Source, error) {
	log := logger.FromContext(ctx)

	if len(candidates) == 0 {
		log.Warn("no candidates provided for relevancy check")
		return nil, nil
	}

	system, user, err := s.buildPrompts(ctx, query, candidates, instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRelevancy, err)
	}

	var out relevancyOutput
	if err := s.model.Complete(ctx, system, user, schemaName, s.maxTokens, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRelevancy, err)
	}

	allowed := make([]domain.Source, len(candidates))
	for i, c := range candidates {
		allowed[i] = domain.SourceFromCandidate(c)
	}

	relevant := domain.IntersectSources(out.RelevantContent, allowed)
	if dropped := len(out.RelevantContent) - len(relevant); dropped > 0 {
		log.Warn("model returned sources outside the candidate set",
			zap.Int("dropped", dropped))
	}

	log.Info("relevancy check completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("relevant", len(relevant)),
	)
	return relevant, nil
}

func (s *Stage) buildPrompts(
	ctx context.Context, query string, candidates []domain.Candidate, instructions string,
) (system, user string, err error) {
	system, err = s.prompts.System(prompt.RelevancyCheck)
	if err != nil {
		return "", "", err
	}
	if defaults := s.defaults.DefaultInstructions(ctx); defaults != "" {
		system = system + "\n\n" + prompt.Sanitize(defaults, prompt.DefaultMaxInputLen)
	}

	template, err := s.prompts.UserTemplate(prompt.RelevancyCheck)
	if err != nil {
		return "", "", err
	}

	sanitizedQuery := prompt.Sanitize(query, prompt.DefaultMaxInputLen)
	instructionsLine := ""
	if sanitized := prompt.Sanitize(instructions, prompt.DefaultMaxInputLen); sanitized != "" {
		instructionsLine = "Extra instructies van de huisarts: " + sanitized
	}

	user = strings.NewReplacer(
		"{question}", sanitizedQuery,
		"{instructions}", instructionsLine,
	).Replace(template)

	var b strings.Builder
	b.WriteString(user)
	for i, c := range candidates {
		content := prompt.Sanitize(c.Content(), maxCandidateContentLen)
		if content == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, content)
	}

	return system, b.String(), nil
}
