package repositories

import (
	"context"

	"github.com/upb/media-gateway/models"
)

// RouteAuditRepository handles route audit data operations
type RouteAuditRepository interface {
	// Insert inserts a new route audit record
	Insert(ctx context.Context, audit *models.RouteAudit) error

	// ListByTraceID retrieves the records for one trace, oldest first
	ListByTraceID(ctx context.Context, traceID string) ([]*models.RouteAudit, error)

	// ListRecent retrieves records newest first with pagination
	ListRecent(ctx context.Context, limit, offset int) ([]*models.RouteAudit, error)
}
