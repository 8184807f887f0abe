package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/providers"
)

func TestNewDeepSeekAdapter_Defaults(t *testing.T) {
	adapter := NewDeepSeekAdapter(providers.ProviderConfig{APIKey: "k"})

	assert.Equal(t, "deepseek", adapter.Name())
	assert.Equal(t, defaultModel, adapter.Model())
	assert.Equal(t, defaultBaseURL, adapter.config.BaseURL)
	assert.Equal(t, defaultTimeout, adapter.config.Timeout)
}

func TestDeepSeekAdapter_Complete(t *testing.T) {
	var captured chatRequest
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "Bearer ds-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","model":"deepseek-chat","choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer server.Close()

	adapter := NewDeepSeekAdapter(providers.ProviderConfig{APIKey: "ds-key", BaseURL: server.URL})
	result, err := adapter.Complete(context.Background(), &providers.Request{
		Input:   "hello",
		System:  "be brief",
		TraceID: "t-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", path)
	assert.False(t, captured.Stream)
	assert.Equal(t, defaultModel, captured.Model)
	assert.Equal(t, []providers.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, captured.Messages)

	assert.Equal(t, "deepseek", result.Provider)
	assert.Equal(t, "deepseek-chat", result.Model)
	assert.Equal(t, "hi", result.OutputText)
	assert.Equal(t, "application/json", result.RawMeta.Headers["Content-Type"])
}

func TestDeepSeekAdapter_NoSystemMessage(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	adapter := NewDeepSeekAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL})
	_, err := adapter.Complete(context.Background(), &providers.Request{Input: "only user"})
	require.NoError(t, err)

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestDeepSeekAdapter_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer server.Close()

	adapter := NewDeepSeekAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL})
	_, err := adapter.Complete(context.Background(), &providers.Request{Input: "x"})

	require.Error(t, err)
	assert.True(t, services.IsUpstreamError(err))

	var provErr *providers.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "overloaded")
}
