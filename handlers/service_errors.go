package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/routing"
	"github.com/upb/media-gateway/utils"
)

// StatusForErrorType maps an error category to its HTTP status
func StatusForErrorType(errType services.ErrorType) int {
	switch errType {
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	case services.ErrorTypeUpstream, services.ErrorTypeInvalidOutput:
		return http.StatusBadGateway
	case services.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		// config, internal and unclassified errors
		return http.StatusInternalServerError
	}
}

// HandleServiceError writes the failure envelope for err
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	traceID := middleware.GetTraceIDFromContext(r.Context())
	errType := services.GetErrorType(err)
	status := StatusForErrorType(errType)
	messages, details := errorEnvelope(err)

	fields := []zap.Field{
		zap.String("trace_id", traceID),
		zap.String("error_type", string(errType)),
		zap.Int("status", status),
		zap.Error(err),
	}
	switch {
	case errType == "" || errType == services.ErrorTypeInternal:
		// Never expose internal error text
		logger.Error("internal error", fields...)
		messages, details = []string{"internal server error"}, nil
	case status >= http.StatusInternalServerError:
		logger.Warn("request failed", fields...)
	default:
		logger.Debug("request rejected", fields...)
	}

	if writeErr := utils.WriteErrors(w, status, traceID, messages, details); writeErr != nil {
		logger.Error("failed to write error response",
			zap.String("trace_id", traceID),
			zap.Error(writeErr))
	}
}

// errorEnvelope extracts the caller-facing messages and details of err
func errorEnvelope(err error) ([]string, map[string]interface{}) {
	var routeErr *routing.RouterError
	if errors.As(err, &routeErr) {
		return routeErr.Errors, routeErr.Details
	}

	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return []string{domainErr.Message}, domainErr.Details
	}

	return []string{err.Error()}, nil
}
