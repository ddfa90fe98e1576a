package relevancy

import "context"

// ChatModel invokes a language model constrained to a structured-output schema.
type ChatModel interface {
	Complete(ctx context.Context, system, user, schemaName string, maxTokens int, out any) error
}

// InstructionsReader supplies the practice-wide default prompt text,
// re-read on every call.
type InstructionsReader interface {
	DefaultInstructions(ctx context.Context) string
}
