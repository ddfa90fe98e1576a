package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/metrics"
)

// errChatTransport marks provider-side chat failures; stages wrap it into
// their own error kind.
var errChatTransport = errors.New("chat transport error")

// ChatModel invokes an OpenAI-compatible chat model with structured output.
// The response is constrained to a JSON schema derived from the target type
// and strictly decoded; a payload that does not fit the schema is an error,
// never a silently-empty result.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// ChatConfig holds the language-model provider settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat model client.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Complete sends a system+user instruction pair and decodes the structured
// response into out. schemaName labels the schema for the provider and for
// metrics; maxTokens bounds the completion.
func (m *ChatModel) Complete(
	ctx context.Context, system, user, schemaName string, maxTokens int, out any,
) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("generate schema %s: %w", schemaName, err)
	}

	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: m.temperature,
		TopP:        1.0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	start := time.Now()

	resp, err := m.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(m.model, schemaName, "error").Inc()
		return parseAPIError("chat", err, errChatTransport)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(m.model, schemaName, "error").Inc()
		return fmt.Errorf("empty chat response for schema %s", schemaName)
	}

	metrics.LLMRequestsTotal.WithLabelValues(m.model, schemaName, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(m.model, schemaName).Observe(duration.Seconds())
	recordTokenUsage(m.model, resp.Usage)

	content := resp.Choices[0].Message.Content
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode structured output %s: %w", schemaName, err)
	}

	return nil
}

func recordTokenUsage(model string, usage openai.Usage) {
	if usage.TotalTokens == 0 {
		return
	}
	metrics.LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
	metrics.LLMTokensTotal.WithLabelValues(model, "total").Add(float64(usage.TotalTokens))
}
