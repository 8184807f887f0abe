package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/media-gateway/services/providers"
)

const (
	// Name is the provider enum value
	Name = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 25 * time.Second

	responsesPath = "responses"
)

// Option configures an OpenAIAdapter
type Option func(*OpenAIAdapter)

// WithHTTPClient overrides the HTTP client used for upstream calls
func WithHTTPClient(client *http.Client) Option {
	return func(a *OpenAIAdapter) {
		a.httpClient = client
	}
}

// OpenAIAdapter implements the Provider interface for the OpenAI Responses API
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	caller     *providers.JSONCaller
}

// NewOpenAIAdapter creates a new OpenAI adapter.
// A missing API key is not an error here; Complete reports it per call.
func NewOpenAIAdapter(config providers.ProviderConfig, opts ...Option) *OpenAIAdapter {
	adapter := &OpenAIAdapter{
		config: config.WithDefaults(defaultBaseURL, defaultModel, defaultTimeout),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	adapter.caller = providers.NewJSONCaller(Name, adapter.config, adapter.httpClient)
	return adapter
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return Name
}

// Model returns the configured model
func (a *OpenAIAdapter) Model() string {
	return a.config.Model
}

// Complete sends a single Responses API call
func (a *OpenAIAdapter) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	return a.caller.Post(ctx, responsesPath, req.TraceID, a.buildRequest(req))
}

// buildRequest maps the system instruction to "instructions" and the
// user payload to "input"
func (a *OpenAIAdapter) buildRequest(req *providers.Request) *ResponsesRequest {
	return &ResponsesRequest{
		Model:        a.config.Model,
		Instructions: req.System,
		Input:        req.Input,
	}
}

// ResponsesRequest is the body of POST /responses
type ResponsesRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input        string `json:"input"`
}
