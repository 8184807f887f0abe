package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/utils"
)

// Check states reported by readiness
const (
	checkHealthy   = "healthy"
	checkUnhealthy = "unhealthy"
	checkDisabled  = "disabled"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db         *sql.DB
	configured []string
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when the audit
// trail is disabled; configured lists providers that have credentials.
func NewHealthHandler(db *sql.DB, configured []string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		configured: configured,
		logger:     logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch err := h.checkDatabase(ctx); {
	case h.db == nil:
		checks["database"] = checkDisabled
	case err != nil:
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = checkUnhealthy
		allHealthy = false
	default:
		checks["database"] = checkHealthy
	}

	// At least one provider must hold credentials to serve traffic
	if len(h.configured) == 0 {
		checks["providers"] = checkUnhealthy
		allHealthy = false
	} else {
		checks["providers"] = checkHealthy
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
