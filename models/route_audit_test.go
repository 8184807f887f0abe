package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouteAudit(t *testing.T) {
	audit := NewRouteAudit("trace-1", "chat", RouteModeAutomatic)

	assert.NotEqual(t, uuid.Nil, audit.ID)
	assert.Equal(t, "trace-1", audit.TraceID)
	assert.Equal(t, "chat", audit.Profile)
	assert.Equal(t, RouteModeAutomatic, audit.Mode)
	assert.JSONEq(t, "[]", string(audit.Attempts))
	assert.False(t, audit.CreatedAt.IsZero())
	assert.Equal(t, "route_audits", audit.TableName())
}

func TestRouteAudit_Builders(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		audit := NewRouteAudit("t", "translate", RouteModeForced).
			WithResult("groq", "llama").
			WithLatency(1500 * time.Millisecond).
			WithMetadata(map[string]interface{}{"page": "home"}).
			WithAttempts([]map[string]interface{}{{"provider": "groq", "success": true}})

		assert.True(t, audit.Success)
		require.NotNil(t, audit.Provider)
		assert.Equal(t, "groq", *audit.Provider)
		assert.Equal(t, "llama", *audit.Model)
		assert.Equal(t, int64(1500), audit.LatencyMs)
		assert.JSONEq(t, `{"page":"home"}`, string(audit.Metadata))
		assert.JSONEq(t, `[{"provider":"groq","success":true}]`, string(audit.Attempts))
		assert.Nil(t, audit.ErrorType)
	})

	t.Run("failure", func(t *testing.T) {
		audit := NewRouteAudit("t", "chat", RouteModeAutomatic).WithFailure("upstream", "")

		assert.False(t, audit.Success)
		require.NotNil(t, audit.ErrorType)
		assert.Equal(t, "upstream", *audit.ErrorType)
		assert.Nil(t, audit.Provider)
	})

	t.Run("unmarshalable values are ignored", func(t *testing.T) {
		audit := NewRouteAudit("t", "chat", RouteModeAutomatic).
			WithAttempts(nil).
			WithMetadata(map[string]interface{}{"bad": math.Inf(1)})

		assert.JSONEq(t, "[]", string(audit.Attempts))
		assert.Nil(t, audit.Metadata)
	})
}

func TestRouteAudit_JSON(t *testing.T) {
	audit := NewRouteAudit("trace-9", "chat", RouteModeAutomatic).WithResult("deepseek", "deepseek-chat")

	data, err := json.Marshal(audit)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "trace-9", decoded["trace_id"])
	assert.Equal(t, "deepseek", decoded["provider"])
	assert.NotContains(t, decoded, "error_type")
	assert.NotContains(t, decoded, "metadata")
}
