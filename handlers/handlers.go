package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/utils"
)

// NotFound answers unknown routes with the failure envelope
func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, middleware.GetTraceIDFromContext(r.Context()), "route "+r.URL.Path+" not found")
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMethodNotAllowed(w, middleware.GetTraceIDFromContext(r.Context()), r.Method)
}

// decodePayload reads the request body as a JSON object. On failure it
// writes a 400 envelope and returns false.
func decodePayload(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (map[string]interface{}, bool) {
	payload, err := utils.DecodeJSONObject(r, utils.DefaultMaxBodyBytes)
	if err == nil {
		return payload, true
	}

	message := err.Error()
	if !errors.Is(err, utils.ErrBodyNotObject) && !errors.Is(err, utils.ErrBodyTooLarge) {
		message = "failed to read request body"
	}
	HandleServiceError(w, r, services.NewDomainError(services.ErrorTypeValidation, message, err), logger)
	return nil, false
}
