package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTraceID(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		want      string
		wantFresh bool
	}{
		{"trace header", map[string]string{TraceIDHeader: "abc-123"}, "abc-123", false},
		{"request id fallback", map[string]string{RequestIDHeader: "req-9"}, "req-9", false},
		{"trace header wins", map[string]string{TraceIDHeader: "t", RequestIDHeader: "r"}, "t", false},
		{"generated", nil, "", true},
		{"too long is replaced", map[string]string{TraceIDHeader: strings.Repeat("x", 200)}, "", true},
		{"control characters are replaced", map[string]string{TraceIDHeader: "bad\tid"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetTraceIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(TraceIDHeader))
			if tt.wantFresh {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	handler := TraceID(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/llm/route", nil)
	req.Header.Set(TraceIDHeader, "trace-log")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "trace-log", fields["trace_id"])
		assert.EqualValues(t, http.StatusBadGateway, fields["status"])
		assert.Equal(t, "/api/v1/llm/route", fields["path"])
	}
}
