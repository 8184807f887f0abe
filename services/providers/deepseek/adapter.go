package deepseek

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/media-gateway/services/providers"
)

const (
	// Name is the provider enum value
	Name = "deepseek"

	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"
	defaultTimeout = 25 * time.Second

	defaultTemperature  = 0.3
	chatCompletionsPath = "chat/completions"
)

// Option configures a DeepSeekAdapter
type Option func(*DeepSeekAdapter)

// WithHTTPClient overrides the HTTP client used for upstream calls
func WithHTTPClient(client *http.Client) Option {
	return func(a *DeepSeekAdapter) {
		a.httpClient = client
	}
}

// DeepSeekAdapter implements the Provider interface for DeepSeek chat completions
type DeepSeekAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	caller     *providers.JSONCaller
}

// NewDeepSeekAdapter creates a new DeepSeek adapter
func NewDeepSeekAdapter(config providers.ProviderConfig, opts ...Option) *DeepSeekAdapter {
	adapter := &DeepSeekAdapter{
		config: config.WithDefaults(defaultBaseURL, defaultModel, defaultTimeout),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	adapter.caller = providers.NewJSONCaller(Name, adapter.config, adapter.httpClient)
	return adapter
}

// Name returns the provider name
func (a *DeepSeekAdapter) Name() string {
	return Name
}

// Model returns the configured model
func (a *DeepSeekAdapter) Model() string {
	return a.config.Model
}

// Complete sends a single chat completion call
func (a *DeepSeekAdapter) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	body := chatRequest{
		Model:       a.config.Model,
		Messages:    providers.ChatMessages(req),
		Temperature: defaultTemperature,
		Stream:      false,
	}
	return a.caller.Post(ctx, chatCompletionsPath, req.TraceID, body)
}

type chatRequest struct {
	Model       string                  `json:"model"`
	Messages    []providers.ChatMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	Stream      bool                    `json:"stream"`
}
