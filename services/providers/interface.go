package providers

import (
	"context"
	"encoding/json"
	"time"
)

// Provider represents one upstream LLM provider behind a normalized contract
type Provider interface {
	// Name returns the provider enum value (e.g., "deepseek", "openai", "groq")
	Name() string

	// Model returns the model identifier sent upstream
	Model() string

	// Complete issues one upstream call and returns the normalized result.
	// Errors are *ProviderError values of kind config, upstream or timeout.
	Complete(ctx context.Context, req *Request) (*Result, error)
}

// Request is the adapter-facing view of a validated route request.
// Caller metadata is intentionally absent: it never reaches provider APIs.
type Request struct {
	// Input is the primary user/content payload
	Input string

	// System is an optional system-level instruction
	System string

	// TraceID is propagated upstream as X-Trace-Id
	TraceID string
}

// Result is the normalized output of one successful adapter call
type Result struct {
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	OutputText string  `json:"output_text"`
	RawMeta    RawMeta `json:"raw_provider_meta"`
}

// RawMeta carries upstream diagnostics. It is never re-parsed downstream.
type RawMeta struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	LatencyMs  int64             `json:"latency_ms"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication; checked at call time
	APIKey string

	// BaseURL for the API
	BaseURL string `validate:"required,url"`

	// Model is the default model identifier
	Model string `validate:"required"`

	// Timeout bounds every upstream call
	Timeout time.Duration `validate:"gt=0"`
}

// WithDefaults fills empty fields from the given defaults
func (c ProviderConfig) WithDefaults(baseURL, model string, timeout time.Duration) ProviderConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = timeout
	}
	return c
}

// ChatMessage is one entry of a flat messages[] request body
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessages builds the messages[] composition used by chat-completion
// style providers: an optional system message followed by the user input.
func ChatMessages(req *Request) []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	return append(messages, ChatMessage{Role: "user", Content: req.Input})
}
