package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RouteMode is how a routed call selected its providers
type RouteMode string

const (
	RouteModeForced    RouteMode = "forced"
	RouteModeAutomatic RouteMode = "automatic"
)

// RouteAudit represents one routed LLM call in the audit trail
type RouteAudit struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TraceID   string          `json:"trace_id" db:"trace_id"`
	Profile   string          `json:"profile" db:"profile"` // chat, translate
	Mode      RouteMode       `json:"mode" db:"mode"`
	Provider  *string         `json:"provider,omitempty" db:"provider"`
	Model     *string         `json:"model,omitempty" db:"model"`
	Success   bool            `json:"success" db:"success"`
	ErrorType *string         `json:"error_type,omitempty" db:"error_type"`
	Attempts  json.RawMessage `json:"attempts" db:"attempts"` // JSONB, ordered provider attempts
	Metadata  json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	LatencyMs int64           `json:"latency_ms" db:"latency_ms"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the RouteAudit model
func (RouteAudit) TableName() string {
	return "route_audits"
}

// NewRouteAudit creates a new RouteAudit instance
func NewRouteAudit(traceID, profile string, mode RouteMode) *RouteAudit {
	return &RouteAudit{
		ID:        uuid.New(),
		TraceID:   traceID,
		Profile:   profile,
		Mode:      mode,
		Attempts:  json.RawMessage("[]"),
		CreatedAt: time.Now().UTC(),
	}
}

// WithResult sets the provider and model that answered
func (a *RouteAudit) WithResult(provider, model string) *RouteAudit {
	a.Success = true
	if provider != "" {
		a.Provider = &provider
	}
	if model != "" {
		a.Model = &model
	}
	return a
}

// WithFailure records the failure category and, for forced calls, the provider
func (a *RouteAudit) WithFailure(errorType, provider string) *RouteAudit {
	a.Success = false
	a.ErrorType = &errorType
	if provider != "" {
		a.Provider = &provider
	}
	return a
}

// WithAttempts sets the attempts; values that fail to marshal are ignored
func (a *RouteAudit) WithAttempts(attempts interface{}) *RouteAudit {
	if data, err := json.Marshal(attempts); err == nil && string(data) != "null" {
		a.Attempts = data
	}
	return a
}

// WithMetadata sets the caller metadata
func (a *RouteAudit) WithMetadata(metadata map[string]interface{}) *RouteAudit {
	if len(metadata) == 0 {
		return a
	}
	if data, err := json.Marshal(metadata); err == nil {
		a.Metadata = data
	}
	return a
}

// WithLatency sets the total route latency
func (a *RouteAudit) WithLatency(d time.Duration) *RouteAudit {
	a.LatencyMs = d.Milliseconds()
	return a
}
