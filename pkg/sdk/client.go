package econsult

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the econsult API client entry point.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	obs        *observer
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	// Metrics registration can only fail on a type clash; fall back to
	// logging-only observation in that case.
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		obs = &observer{logger: cfg.logger}
		if cfg.logger != nil {
			cfg.logger.Warn("metrics registration failed", "error", err)
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.apiKey,
		httpClient: hc,
		obs:        obs,
	}
}

// Search runs the full search pipeline for a practitioner question.
// instructions may be empty; it carries per-request doctor guidance.
func (c *Client) Search(ctx context.Context, query, instructions string) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	body := searchRequest{Query: query, DoctorInstructions: instructions}
	err = c.do(ctx, http.MethodPost, "/api/search", body, &res)
	return res, err
}

// GetSettings fetches the practice-wide default instructions.
func (c *Client) GetSettings(ctx context.Context) (s Settings, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_settings", start, err) }()

	var resp settingsResponse
	if err = c.do(ctx, http.MethodGet, "/api/settings", nil, &resp); err != nil {
		return Settings{}, err
	}
	if resp.Settings == nil {
		return Settings{}, nil
	}
	return *resp.Settings, nil
}

// UpdateSettings replaces the practice-wide default instructions.
func (c *Client) UpdateSettings(ctx context.Context, defaultPrompts string) (s Settings, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_settings", start, err) }()

	var resp settingsResponse
	body := settingsRequest{DefaultSystemPrompts: defaultPrompts}
	if err = c.do(ctx, http.MethodPost, "/api/settings", body, &resp); err != nil {
		return Settings{}, err
	}
	if resp.Settings == nil {
		return Settings{}, nil
	}
	return *resp.Settings, nil
}

// ResetSettings restores default practice settings.
func (c *Client) ResetSettings(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset_settings", start, err) }()

	var resp settingsResponse
	return c.do(ctx, http.MethodDelete, "/api/settings", nil, &resp)
}

// Health checks the health of the service and its dependencies.
// A degraded service returns a non-nil HealthStatus together with
// ErrUnavailable.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	err = c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("econsult: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("econsult: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("econsult: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("econsult: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data, out)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("econsult: decode response: %w", err)
		}
	}
	return nil
}

// parseAPIError decodes the service's uniform error body. The health
// endpoint returns its regular body with a 503, so the payload is also
// decoded into out when possible.
func parseAPIError(status int, data []byte, out any) error {
	if out != nil && len(data) > 0 {
		_ = json.Unmarshal(data, out)
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Code == "" {
		body.Code = codeFromStatus(status)
		body.Message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Code: body.Code, Message: body.Message}
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal_error"
	}
}
