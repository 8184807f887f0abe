package groq

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/media-gateway/services/providers"
)

const (
	// Name is the provider enum value
	Name = "groq"

	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 10 * time.Second

	defaultTemperature  = 0.2
	chatCompletionsPath = "chat/completions"
)

// Option configures a GroqAdapter
type Option func(*GroqAdapter)

// WithHTTPClient overrides the HTTP client used for upstream calls
func WithHTTPClient(client *http.Client) Option {
	return func(a *GroqAdapter) {
		a.httpClient = client
	}
}

// GroqAdapter implements the Provider interface for Groq's
// OpenAI-compatible chat completions endpoint
type GroqAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	caller     *providers.JSONCaller
}

// NewGroqAdapter creates a new Groq adapter
func NewGroqAdapter(config providers.ProviderConfig, opts ...Option) *GroqAdapter {
	adapter := &GroqAdapter{
		config: config.WithDefaults(defaultBaseURL, defaultModel, defaultTimeout),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	adapter.caller = providers.NewJSONCaller(Name, adapter.config, adapter.httpClient)
	return adapter
}

// Name returns the provider name
func (a *GroqAdapter) Name() string {
	return Name
}

// Model returns the configured model
func (a *GroqAdapter) Model() string {
	return a.config.Model
}

// Complete sends a single chat completion call
func (a *GroqAdapter) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	body := chatRequest{
		Model:       a.config.Model,
		Messages:    providers.ChatMessages(req),
		Temperature: defaultTemperature,
	}
	return a.caller.Post(ctx, chatCompletionsPath, req.TraceID, body)
}

type chatRequest struct {
	Model       string                  `json:"model"`
	Messages    []providers.ChatMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
}
