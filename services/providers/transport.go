package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/media-gateway/services/normalize"
)

const (
	// fallbackTimeout applies when a caller is built without a timeout
	fallbackTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of an upstream body is read
	maxResponseBytes = 4 << 20
)

// forwardedHeaders are the upstream response headers kept in RawMeta
var forwardedHeaders = []string{
	"Content-Type",
	"X-Request-Id",
	"Openai-Processing-Ms",
	"X-Ratelimit-Remaining-Requests",
	"X-Ratelimit-Remaining-Tokens",
}

// JSONCaller performs the HTTP mechanics shared by all adapters: credential
// check, bounded POST, status handling, and response normalization.
type JSONCaller struct {
	provider   string
	config     ProviderConfig
	httpClient *http.Client
}

// NewJSONCaller creates a caller for one provider.
// The http.Client should not carry its own Timeout; each call is bounded by
// a context deadline derived from config.Timeout.
func NewJSONCaller(provider string, config ProviderConfig, httpClient *http.Client) *JSONCaller {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.Timeout <= 0 {
		config.Timeout = fallbackTimeout
	}
	config.APIKey = strings.TrimSpace(config.APIKey)
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	return &JSONCaller{
		provider:   provider,
		config:     config,
		httpClient: httpClient,
	}
}

// Config returns the effective configuration
func (c *JSONCaller) Config() ProviderConfig {
	return c.config
}

// Post sends payload as JSON to path under the configured base URL and
// normalizes the response into a Result.
func (c *JSONCaller) Post(ctx context.Context, path, traceID string, payload interface{}) (*Result, error) {
	if c.config.APIKey == "" {
		return nil, NewConfigError(c.provider, "api key is not configured")
	}
	if c.config.BaseURL == "" {
		return nil, NewConfigError(c.provider, "base url is not configured")
	}
	endpoint, err := url.JoinPath(c.config.BaseURL, path)
	if err != nil {
		return nil, NewConfigError(c.provider, fmt.Sprintf("invalid base url: %v", err))
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, NewUpstreamError(c.provider, "failed to encode request", 0, nil, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, NewUpstreamError(c.provider, "failed to create request", 0, nil, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if traceID != "" {
		httpReq.Header.Set("X-Trace-Id", traceID)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(callCtx, "request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(callCtx, "failed to read response", err)
	}
	latency := time.Since(start)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, NewUpstreamError(c.provider, fmt.Sprintf("http %d", httpResp.StatusCode), httpResp.StatusCode, body, nil)
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, NewUpstreamError(c.provider, "response is not valid JSON", httpResp.StatusCode, body, err)
	}

	text, ok := normalize.ExtractValue(decoded)
	if !ok {
		return nil, NewUpstreamError(c.provider, "response contained no output text", httpResp.StatusCode, body, nil)
	}

	return &Result{
		Provider:   c.provider,
		Model:      responseModel(decoded, c.config.Model),
		OutputText: text,
		RawMeta: RawMeta{
			StatusCode: httpResp.StatusCode,
			Headers:    selectHeaders(httpResp.Header),
			Body:       json.RawMessage(body),
			LatencyMs:  latency.Milliseconds(),
		},
	}, nil
}

// transportError distinguishes an expired attempt deadline from other
// transport failures.
func (c *JSONCaller) transportError(callCtx context.Context, message string, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(c.provider, c.config.Timeout, err)
	}
	return NewUpstreamError(c.provider, message, 0, nil, err)
}

func responseModel(decoded interface{}, fallback string) string {
	if obj, ok := decoded.(map[string]interface{}); ok {
		if model, ok := obj["model"].(string); ok && model != "" {
			return model
		}
	}
	return fallback
}

func selectHeaders(h http.Header) map[string]string {
	selected := make(map[string]string)
	for _, key := range forwardedHeaders {
		if v := h.Get(key); v != "" {
			selected[key] = v
		}
	}
	return selected
}
