package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/media-gateway/app"
	"github.com/upb/media-gateway/config"
	"github.com/upb/media-gateway/services/providers"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"deepseek-chat","choices":[{"message":{"role":"assistant","content":"routed"}}]}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{APIToken: testToken},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
		Providers: config.ProvidersConfig{
			DeepSeek: providers.ProviderConfig{APIKey: "sk-test", BaseURL: upstream.URL, Timeout: time.Second},
			Groq:     providers.ProviderConfig{Timeout: time.Second},
			OpenAI:   providers.ProviderConfig{Timeout: time.Second},
		},
		Router: config.RouterConfig{
			ChatOrder:      []string{"deepseek"},
			TranslateOrder: []string{"deepseek", "groq"},
		},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	server := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func authHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{"Authorization": "Bearer " + testToken}
	for key, value := range extra {
		headers[key] = value
	}
	return headers
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("liveness", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, server.URL+"/healthz", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
		assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))
	})

	t.Run("readiness without database", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, server.URL+"/readyz", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ready", body["status"])
	})
}

func TestTraceIDEcho(t *testing.T) {
	server := newTestServer(t)

	resp, _ := do(t, http.MethodGet, server.URL+"/healthz", "", map[string]string{"X-Trace-Id": "trace-abc"})
	assert.Equal(t, "trace-abc", resp.Header.Get("X-Trace-Id"))

	resp, _ = do(t, http.MethodGet, server.URL+"/healthz", "", map[string]string{"X-Request-Id": "req-123"})
	assert.Equal(t, "req-123", resp.Header.Get("X-Trace-Id"))
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)

	resp, _ := do(t, http.MethodOptions, server.URL+"/api/v1/llm/route", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Authorization, Content-Type",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProtectedEndpoints(t *testing.T) {
	server := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		path   string
	}{
		{"status", http.MethodGet, "/api/v1/status"},
		{"chat route", http.MethodPost, "/api/v1/llm/route"},
		{"translate", http.MethodPost, "/api/v1/translate"},
		{"review", http.MethodPost, "/api/v1/review/generate"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, tc.method, server.URL+tc.path, `{}`, map[string]string{"X-Trace-Id": "trace-401"})

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "trace-401", body["trace_id"])
			assert.NotEmpty(t, body["errors"])
		})
	}
}

func TestChatRoute(t *testing.T) {
	server := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, server.URL+"/api/v1/llm/route", `{"input":"hello"}`,
			authHeaders(map[string]string{"X-Trace-Id": "trace-ok", "Content-Type": "application/json"}))

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "deepseek", body["provider"])
		assert.Equal(t, "deepseek-chat", body["model"])
		assert.Equal(t, "routed", body["output_text"])
		assert.Equal(t, "trace-ok", body["trace_id"])
		assert.Contains(t, body, "raw_provider_meta")
	})

	t.Run("validation failure", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, server.URL+"/api/v1/llm/route", `{"input":""}`, authHeaders(nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, body["errors"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("forced unconfigured provider", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, server.URL+"/api/v1/translate",
			`{"input":"hola","provider":"groq"}`, authHeaders(nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotEmpty(t, body["errors"])
	})
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := do(t, http.MethodGet, server.URL+"/api/v1/status", "", authHeaders(nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "status payload is wrapped in data")
	assert.Len(t, data["providers"], 3)
	assert.Len(t, data["profiles"], 2)
	assert.NotContains(t, data, "audit")
}

func TestFallbackHandlers(t *testing.T) {
	server := newTestServer(t)

	t.Run("not found", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, server.URL+"/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.NotEmpty(t, body["errors"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, server.URL+"/healthz", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.NotEmpty(t, body["errors"])
	})

	t.Run("method not allowed ahead of auth", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, server.URL+"/api/v1/llm/route", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.NotEmpty(t, body["errors"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("unknown api path still requires auth", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, server.URL+"/api/v1/nope", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("audit routes absent without database", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, server.URL+"/api/v1/audit/routes", "", authHeaders(nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
