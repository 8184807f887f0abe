package middleware

import (
	"context"

	"github.com/upb/media-gateway/internal/observability"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for authenticated caller claims
	ClaimsKey contextKey = "claims"
)

// Authentication methods recorded in Claims.Method
const (
	AuthMethodToken = "token"
	AuthMethodJWT   = "jwt"
)

// Claims describes the authenticated caller
type Claims struct {
	Subject string   `json:"sub"`
	Issuer  string   `json:"iss,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
	Method  string   `json:"-"`
}

// GetTraceIDFromContext retrieves the trace ID from context
func GetTraceIDFromContext(ctx context.Context) string {
	return observability.TraceIDFromContext(ctx)
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return observability.WithTraceID(ctx, traceID)
}

// GetClaimsFromContext retrieves caller claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds caller claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
