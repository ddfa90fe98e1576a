package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type chatTestOutput struct {
	Answer  string `json:"answer"`
	Grounds []int  `json:"grounds"`
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat struct {
				Type       string `json:"type"`
				JSONSchema struct {
					Name   string `json:"name"`
					Strict bool   `json:"strict"`
				} `json:"json_schema"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat.Type != "json_schema" {
			t.Errorf("response_format.type = %q", req.ResponseFormat.Type)
		}
		if req.ResponseFormat.JSONSchema.Name != "test_schema" {
			t.Errorf("schema name = %q", req.ResponseFormat.JSONSchema.Name)
		}
		if !req.ResponseFormat.JSONSchema.Strict {
			t.Error("schema is not strict")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		body := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     20,
				"completion_tokens": 5,
				"total_tokens":      25,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestChatModel(baseURL string) *ChatModel {
	return NewChatModel(&ChatConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "test-model",
		Temperature: 0.1,
		Logger:      zap.NewNop(),
	})
}

func TestChatModel_Complete(t *testing.T) {
	server := chatServer(t, `{"answer":"Bij langdurige hoest is nader onderzoek nodig.","grounds":[1,3]}`)
	defer server.Close()

	model := newTestChatModel(server.URL)

	var out chatTestOutput
	err := model.Complete(context.Background(), "system prompt", "user prompt", "test_schema", 500, &out)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(out.Answer, "langdurige hoest") {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
	if len(out.Grounds) != 2 || out.Grounds[0] != 1 || out.Grounds[1] != 3 {
		t.Errorf("unexpected grounds: %v", out.Grounds)
	}
}

func TestChatModel_CompleteRejectsUnknownFields(t *testing.T) {
	server := chatServer(t, `{"answer":"ok","grounds":[],"confidence":0.9}`)
	defer server.Close()

	model := newTestChatModel(server.URL)

	var out chatTestOutput
	err := model.Complete(context.Background(), "system", "user", "test_schema", 500, &out)
	if err == nil {
		t.Fatal("expected decode error for unknown field")
	}
	if !strings.Contains(err.Error(), "decode structured output") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestChatModel_CompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[],"usage":{}}`))
	}))
	defer server.Close()

	model := newTestChatModel(server.URL)

	var out chatTestOutput
	err := model.Complete(context.Background(), "system", "user", "test_schema", 500, &out)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatModel_CompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	model := newTestChatModel(server.URL)

	var out chatTestOutput
	err := model.Complete(context.Background(), "system", "user", "test_schema", 500, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errChatTransport) {
		t.Errorf("error = %v, want errChatTransport", err)
	}
}
