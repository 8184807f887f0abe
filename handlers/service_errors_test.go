package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/routing"
	"github.com/upb/media-gateway/utils"
)

func requestWithTrace(method, target, traceID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithTraceID(req.Context(), traceID))
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestStatusForErrorType(t *testing.T) {
	tests := []struct {
		errType services.ErrorType
		want    int
	}{
		{services.ErrorTypeValidation, http.StatusBadRequest},
		{services.ErrorTypeConfig, http.StatusInternalServerError},
		{services.ErrorTypeUpstream, http.StatusBadGateway},
		{services.ErrorTypeInvalidOutput, http.StatusBadGateway},
		{services.ErrorTypeTimeout, http.StatusGatewayTimeout},
		{services.ErrorTypeNotFound, http.StatusNotFound},
		{services.ErrorTypeUnauthorized, http.StatusUnauthorized},
		{services.ErrorTypeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForErrorType(tt.errType))
		})
	}
}

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedErrors []string
		checkDetails   func(*testing.T, map[string]interface{})
	}{
		{
			name: "router validation error",
			err: &routing.RouterError{
				Kind:   services.ErrorTypeValidation,
				Errors: []string{"input must be a non-empty string", "system must be a string"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{"input must be a non-empty string", "system must be a string"},
		},
		{
			name: "router exhaustion keeps attempt details",
			err: &routing.RouterError{
				Kind:   services.ErrorTypeUpstream,
				Errors: []string{"providers unavailable"},
				Details: map[string]interface{}{
					"attempts": []routing.Attempt{{Provider: "deepseek", ErrorType: services.ErrorTypeUpstream}},
				},
			},
			expectedStatus: http.StatusBadGateway,
			expectedErrors: []string{"providers unavailable"},
			checkDetails: func(t *testing.T, details map[string]interface{}) {
				attempts := details["attempts"].([]interface{})
				require.Len(t, attempts, 1)
				assert.Equal(t, "deepseek", attempts[0].(map[string]interface{})["provider"])
			},
		},
		{
			name:           "forced timeout",
			err:            &routing.RouterError{Kind: services.ErrorTypeTimeout, Errors: []string{"provider groq timed out"}},
			expectedStatus: http.StatusGatewayTimeout,
			expectedErrors: []string{"provider groq timed out"},
		},
		{
			name:           "forced config error",
			err:            &routing.RouterError{Kind: services.ErrorTypeConfig, Errors: []string{"provider openai is misconfigured"}},
			expectedStatus: http.StatusInternalServerError,
			expectedErrors: []string{"provider openai is misconfigured"},
		},
		{
			name: "invalid output",
			err: services.NewDomainError(services.ErrorTypeInvalidOutput, "model output failed validation", nil).
				WithDetail("provider", "deepseek"),
			expectedStatus: http.StatusBadGateway,
			expectedErrors: []string{"model output failed validation"},
			checkDetails: func(t *testing.T, details map[string]interface{}) {
				assert.Equal(t, "deepseek", details["provider"])
			},
		},
		{
			name:           "not found sentinel",
			err:            services.ErrAuditRecordNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "provider error",
			err:            providers.NewTimeoutError("groq", 0, nil),
			expectedStatus: http.StatusGatewayTimeout,
		},
		{
			name:           "internal error hides cause",
			err:            services.WrapInternal("db exploded at 10.0.0.3", errors.New("conn refused")),
			expectedStatus: http.StatusInternalServerError,
			expectedErrors: []string{"internal server error"},
		},
		{
			name:           "unclassified error hides text",
			err:            errors.New("secret stack"),
			expectedStatus: http.StatusInternalServerError,
			expectedErrors: []string{"internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, requestWithTrace(http.MethodPost, "/", "trace-err"), tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeErrorResponse(t, w)
			assert.Equal(t, "trace-err", response.TraceID)
			assert.NotEmpty(t, response.Errors)
			if tt.expectedErrors != nil {
				assert.Equal(t, tt.expectedErrors, response.Errors)
			}
			if tt.checkDetails != nil {
				tt.checkDetails(t, response.Details)
			}
		})
	}
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil, zap.NewNop())
	assert.Empty(t, w.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, requestWithTrace(http.MethodGet, "/nope", "t1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"route /nope not found"}, decodeErrorResponse(t, w).Errors)

	w = httptest.NewRecorder()
	MethodNotAllowed(w, requestWithTrace(http.MethodDelete, "/api/v1/llm/route", "t2"))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	response := decodeErrorResponse(t, w)
	assert.Equal(t, "t2", response.TraceID)
	assert.Equal(t, []string{"method DELETE not allowed"}, response.Errors)
}
