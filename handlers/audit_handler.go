package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/media-gateway/models"
	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/utils"
)

// AuditReader reads the route audit trail
type AuditReader interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*models.RouteAudit, error)
	ListByTraceID(ctx context.Context, traceID string) ([]*models.RouteAudit, error)
}

// AuditHandler serves the route audit trail
type AuditHandler struct {
	audits AuditReader
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audits AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audits: audits,
		logger: logger,
	}
}

// HandleListRecent handles GET /api/v1/audit/routes
func (h *AuditHandler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	audits, err := h.audits.ListRecent(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteData(w, audits, map[string]interface{}{
		"count":  len(audits),
		"offset": offset,
	})
}

// HandleGetByTraceID handles GET /api/v1/audit/routes/{traceID}
func (h *AuditHandler) HandleGetByTraceID(w http.ResponseWriter, r *http.Request) {
	audits, err := h.audits.ListByTraceID(r.Context(), chi.URLParam(r, "traceID"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteData(w, audits, map[string]interface{}{"count": len(audits)})
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("%s must be a non-negative integer", name), nil)
	}
	return value, nil
}
