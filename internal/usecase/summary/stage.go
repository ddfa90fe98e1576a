// Package summary implements the grounded summarization stage: the language
// model writes the patient-facing answer using only the relevance-filtered
// sources. Summarization over zero sources is a precondition violation, and
// citations returned by the model are validated against the input set.
package summary

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
	schemaName = "llm_summary"

	// Full grounding context matters more here than in the filter stage,
	// so content gets a larger budget; titles stay short.
	maxSourceTitleLen   = 200
	maxSourceContentLen = 3000
)

// ChatModel invokes a language model constrained to a structured-output schema.
type ChatModel interface {
	Complete(ctx context.Context, system, user, schemaName string, maxTokens int, out any) error
}

// InstructionsReader supplies the practice-wide default prompt text,
// re-read on every call.
type InstructionsReader interface {
	DefaultInstructions(ctx context.Context) string
}

// summaryOutput is the structured-output schema for the summarization call.
type summaryOutput struct {
	Summary     string          `json:"summary"`
	SourcesUsed []domain.Source `json:"sources_used"`
}

// Stage produces the grounded summary.
type Stage struct {
	model     ChatModel
	prompts   *prompt.Library
	defaults  InstructionsReader
	maxTokens int
}

// New creates a summarization stage.
func New(model ChatModel, prompts *prompt.Library, defaults InstructionsReader, maxTokens int) *Stage {
	return &Stage{model: model, prompts: prompts, defaults: defaults, maxTokens: maxTokens}
}

// Summarize answers the query grounded in the relevant sources. Every source
// in the returned summary is guaranteed to be a member of relevant.
func (s *Stage) Summarize(
	ctx context.Context, query string, relevant []domain.Source, instructions string,
) (domain.Summary, error) {
	log := logger.FromContext(ctx)

	if len(relevant) == 0 {
		return domain.Summary{}, fmt.Errorf("%w: %w", domain.ErrSummary, domain.ErrNoSources)
	}

	system, user, err := s.buildPrompts(ctx, query, relevant, instructions)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %w", domain.ErrSummary, err)
	}

	var out summaryOutput
	if err := s.model.Complete(ctx, system, user, schemaName, s.maxTokens, &out); err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %w", domain.ErrSummary, err)
	}
	if out.Summary == "" {
		return domain.Summary{}, fmt.Errorf("%w: model returned an empty summary", domain.ErrSummary)
	}

	// Grounding check: models can still hallucinate a citation despite
	// instruction, so anything outside the input set is stripped.
	used := domain.IntersectSources(out.SourcesUsed, relevant)
	if dropped := len(out.SourcesUsed) - len(used); dropped > 0 {
		log.Warn("model cited sources outside the grounding set",
			zap.Int("dropped", dropped))
	}

	log.Info("summary generated", zap.Int("sources_used", len(used)))
	return domain.Summary{Text: out.Summary, Sources: used}, nil
}

func (s *Stage) buildPrompts(
	ctx context.Context, query string, relevant []domain.Source, instructions string,
) (system, user string, err error) {
	system, err = s.prompts.System(prompt.Summarization)
	if err != nil {
		return "", "", err
	}
	if defaults := s.defaults.DefaultInstructions(ctx); defaults != "" {
		system = system + "\n\n" + prompt.Sanitize(defaults, prompt.DefaultMaxInputLen)
	}
	if sanitized := prompt.Sanitize(instructions, prompt.DefaultMaxInputLen); sanitized != "" {
		system = system + "\n\nExtra huisarts informatie: " + sanitized
	}

	template, err := s.prompts.UserTemplate(prompt.Summarization)
	if err != nil {
		return "", "", err
	}

	user = strings.NewReplacer(
		"{question}", prompt.Sanitize(query, prompt.DefaultMaxInputLen),
		"{context}", buildContext(relevant),
	).Replace(template)

	return system, user, nil
}

// buildContext enumerates the grounding sources as a numbered block.
func buildContext(relevant []domain.Source) string {
	var b strings.Builder
	b.WriteString("Relevante informatie gevonden:\n")
	for i, src := range relevant {
		title := prompt.Sanitize(src.Title, maxSourceTitleLen)
		content := prompt.Sanitize(src.Content, maxSourceContentLen)
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   Inhoud: %s\n", i+1, title, src.URL, content)
	}
	return b.String()
}
