package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// TraceIDHeader carries the trace id on requests and responses
	TraceIDHeader = "X-Trace-Id"

	// RequestIDHeader is accepted as a trace id when TraceIDHeader is absent
	RequestIDHeader = "X-Request-Id"

	maxTraceIDLength = 128
)

// TraceID resolves the request's trace id, stores it in the context and
// echoes it in the response
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := resolveTraceID(r)
		w.Header().Set(TraceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), traceID)))
	})
}

func resolveTraceID(r *http.Request) string {
	for _, header := range []string{TraceIDHeader, RequestIDHeader} {
		if value := sanitizeTraceID(r.Header.Get(header)); value != "" {
			return value
		}
	}
	return uuid.NewString()
}

// sanitizeTraceID rejects values that are too long or not printable ASCII
func sanitizeTraceID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxTraceIDLength {
		return ""
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x21 || value[i] > 0x7e {
			return ""
		}
	}
	return value
}
