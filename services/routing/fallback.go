package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/redact"
)

var (
	// ErrNoCandidates is returned when there is nothing to try
	ErrNoCandidates = errors.New("no candidate providers")

	// ErrExhausted is returned when every candidate failed
	ErrExhausted = errors.New("all candidate providers failed")
)

// Attempt records one provider call made by FirstSuccess
type Attempt struct {
	Provider   string             `json:"provider"`
	Model      string             `json:"model"`
	Success    bool               `json:"success"`
	ErrorType  services.ErrorType `json:"error_type,omitempty"`
	Error      string             `json:"error,omitempty"`
	StatusCode int                `json:"status_code,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// CallFunc performs one call against a candidate provider
type CallFunc func(ctx context.Context, provider providers.Provider) (*providers.Result, error)

// FirstSuccess calls candidates sequentially, in order, and returns the first
// successful result. Failures are recorded and the next candidate is tried.
// A cancelled ctx stops the chain before the next attempt.
func FirstSuccess(ctx context.Context, candidates []providers.Provider, call CallFunc) (*providers.Result, []Attempt, error) {
	if len(candidates) == 0 {
		return nil, nil, ErrNoCandidates
	}

	attempts := make([]Attempt, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, attempts, fmt.Errorf("fallback stopped: %w", err)
		}

		start := time.Now()
		result, err := call(ctx, candidate)
		if err == nil && (result == nil || result.OutputText == "") {
			err = providers.NewUpstreamError(candidate.Name(), "empty output", 0, nil, nil)
		}

		attempt := Attempt{
			Provider:   candidate.Name(),
			Model:      candidate.Model(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err == nil {
			attempt.Success = true
			attempt.Model = result.Model
			attempts = append(attempts, attempt)
			return result, attempts, nil
		}

		attempt.ErrorType = providers.KindOf(err)
		attempt.Error = redact.String(err.Error())
		var provErr *providers.ProviderError
		if errors.As(err, &provErr) {
			attempt.StatusCode = provErr.StatusCode
		}
		attempts = append(attempts, attempt)
	}

	if err := ctx.Err(); err != nil {
		return nil, attempts, fmt.Errorf("fallback stopped: %w", err)
	}
	return nil, attempts, ErrExhausted
}
