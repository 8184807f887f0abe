package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/services/review"
	"github.com/upb/media-gateway/utils"
)

// ReviewGenerator produces validated review decisions
type ReviewGenerator interface {
	Generate(ctx context.Context, payload map[string]interface{}, traceID string) (*review.Generation, error)
}

// ReviewResponse is the route success envelope plus the parsed decision
type ReviewResponse struct {
	RouteResponse
	Decision *review.Decision `json:"decision"`
}

// ReviewHandler handles review generation requests
type ReviewHandler struct {
	service ReviewGenerator
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(service ReviewGenerator, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGenerate handles POST /api/v1/review/generate
func (h *ReviewHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r, h.logger)
	if !ok {
		return
	}

	traceID := middleware.GetTraceIDFromContext(r.Context())
	generation, err := h.service.Generate(r.Context(), payload, traceID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	response := ReviewResponse{
		RouteResponse: NewRouteResponse(generation.Result, traceID),
		Decision:      generation.Decision,
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write review response",
			zap.String("trace_id", traceID),
			zap.Error(err))
	}
}
