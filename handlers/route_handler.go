package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/utils"
)

// Router routes a raw payload to a provider
type Router interface {
	Route(ctx context.Context, payload map[string]interface{}, traceID string) (*providers.Result, error)
}

// RouteResponse is the success envelope of a routed call
type RouteResponse struct {
	Provider        string            `json:"provider"`
	Model           string            `json:"model"`
	TraceID         string            `json:"trace_id"`
	OutputText      string            `json:"output_text"`
	RawProviderMeta providers.RawMeta `json:"raw_provider_meta"`
}

// NewRouteResponse builds the success envelope for result
func NewRouteResponse(result *providers.Result, traceID string) RouteResponse {
	return RouteResponse{
		Provider:        result.Provider,
		Model:           result.Model,
		TraceID:         traceID,
		OutputText:      result.OutputText,
		RawProviderMeta: result.RawMeta,
	}
}

// RouteHandler serves one routing profile
type RouteHandler struct {
	router Router
	logger *zap.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(router Router, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		router: router,
		logger: logger,
	}
}

// HandleRoute handles POST /api/v1/llm/route and POST /api/v1/translate
func (h *RouteHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r, h.logger)
	if !ok {
		return
	}

	traceID := middleware.GetTraceIDFromContext(r.Context())
	result, err := h.router.Route(r.Context(), payload, traceID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, NewRouteResponse(result, traceID)); err != nil {
		h.logger.Error("failed to write route response",
			zap.String("trace_id", traceID),
			zap.Error(err))
	}
}
