package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/models"
	"github.com/upb/media-gateway/repositories"
)

const routeAuditColumns = `id, trace_id, profile, mode, provider, model, success,
		       error_type, attempts, metadata, latency_ms, created_at`

// RouteAuditRepository implements the repositories.RouteAuditRepository interface
type RouteAuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRouteAuditRepository creates a new route audit repository
func NewRouteAuditRepository(db *DB, logger *zap.Logger) repositories.RouteAuditRepository {
	return &RouteAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new route audit record
func (r *RouteAuditRepository) Insert(ctx context.Context, audit *models.RouteAudit) error {
	query := `
		INSERT INTO route_audits (
			id, trace_id, profile, mode, provider, model, success,
			error_type, attempts, metadata, latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	var metadata interface{}
	if len(audit.Metadata) > 0 {
		metadata = []byte(audit.Metadata)
	}

	_, err := r.db.ExecContext(ctx, query,
		audit.ID,
		audit.TraceID,
		audit.Profile,
		string(audit.Mode),
		audit.Provider,
		audit.Model,
		audit.Success,
		audit.ErrorType,
		[]byte(audit.Attempts),
		metadata,
		audit.LatencyMs,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert route audit: %w", err)
	}

	r.logger.Debug("route audit inserted",
		zap.String("id", audit.ID.String()),
		zap.String("trace_id", audit.TraceID))
	return nil
}

// ListByTraceID retrieves the records for one trace, oldest first
func (r *RouteAuditRepository) ListByTraceID(ctx context.Context, traceID string) ([]*models.RouteAudit, error) {
	query := `
		SELECT ` + routeAuditColumns + `
		FROM route_audits
		WHERE trace_id = $1
		ORDER BY created_at ASC
	`

	return r.queryRouteAudits(ctx, query, traceID)
}

// ListRecent retrieves records newest first with pagination
func (r *RouteAuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.RouteAudit, error) {
	query := `
		SELECT ` + routeAuditColumns + `
		FROM route_audits
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryRouteAudits(ctx, query, limit, offset)
}

func (r *RouteAuditRepository) queryRouteAudits(ctx context.Context, query string, args ...interface{}) ([]*models.RouteAudit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query route audits: %w", err)
	}
	defer rows.Close()

	audits := make([]*models.RouteAudit, 0)
	for rows.Next() {
		audit := &models.RouteAudit{}
		var mode string
		var attempts, metadata []byte

		if err := rows.Scan(
			&audit.ID,
			&audit.TraceID,
			&audit.Profile,
			&mode,
			&audit.Provider,
			&audit.Model,
			&audit.Success,
			&audit.ErrorType,
			&attempts,
			&metadata,
			&audit.LatencyMs,
			&audit.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan route audit: %w", err)
		}

		audit.Mode = models.RouteMode(mode)
		audit.Attempts = attempts
		if len(metadata) > 0 {
			audit.Metadata = metadata
		}
		audits = append(audits, audit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route audits: %w", err)
	}

	return audits, nil
}
