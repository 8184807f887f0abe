package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/models"
	"github.com/upb/media-gateway/repositories"
	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/routing"
)

const (
	// DefaultListLimit applies when a caller asks for no limit
	DefaultListLimit = 50

	// MaxListLimit caps a single page
	MaxListLimit = 500

	insertTimeout = 5 * time.Second
)

var (
	// ErrNotStarted is returned when events are logged before Start
	ErrNotStarted = errors.New("audit service not started")

	// ErrBufferFull is returned when the event buffer has no room
	ErrBufferFull = errors.New("audit event buffer full")
)

// AuditService persists route audit records asynchronously.
// It implements routing.Recorder.
type AuditService struct {
	repo        repositories.RouteAuditRepository
	logger      *zap.Logger
	eventChan   chan *models.RouteAudit
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	dropped     int
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repositories.RouteAuditRepository, logger *zap.Logger, config Config) *AuditService {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}

	return &AuditService{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.RouteAudit, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for pending ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	pending := len(s.eventChan)
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-timer.C:
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues a record without blocking. A full buffer drops the record.
func (s *AuditService) LogEvent(audit *models.RouteAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return ErrNotStarted
	}

	select {
	case s.eventChan <- audit:
		return nil
	default:
		s.dropped++
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("trace_id", audit.TraceID),
			zap.String("profile", audit.Profile))
		return ErrBufferFull
	}
}

// RecordRoute converts a routing record and queues it
func (s *AuditService) RecordRoute(ctx context.Context, record *routing.RouteRecord) {
	if err := s.LogEvent(FromRouteRecord(record)); err != nil && !errors.Is(err, ErrBufferFull) {
		s.logger.Debug("route record not audited",
			zap.String("trace_id", record.TraceID),
			zap.Error(err))
	}
}

// FromRouteRecord maps a routing record to its persisted form
func FromRouteRecord(record *routing.RouteRecord) *models.RouteAudit {
	mode := models.RouteModeAutomatic
	if record.Mode == routing.ModeForced {
		mode = models.RouteModeForced
	}

	audit := models.NewRouteAudit(record.TraceID, record.Profile, mode).
		WithAttempts(record.Attempts).
		WithMetadata(record.Metadata).
		WithLatency(record.Duration)
	if !record.CreatedAt.IsZero() {
		audit.CreatedAt = record.CreatedAt
	}

	if record.Success {
		return audit.WithResult(record.Provider, record.Model)
	}
	return audit.WithFailure(string(record.ErrorType), record.Provider)
}

// ListByTraceID returns the audit records of one trace
func (s *AuditService) ListByTraceID(ctx context.Context, traceID string) ([]*models.RouteAudit, error) {
	if traceID == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "trace id is required", nil)
	}

	audits, err := s.repo.ListByTraceID(ctx, traceID)
	if err != nil {
		return nil, services.WrapInternal("failed to list route audits", err)
	}
	if len(audits) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "no audit records for trace", nil).
			WithDetail("trace_id", traceID)
	}
	return audits, nil
}

// ListRecent returns a page of the most recent records
func (s *AuditService) ListRecent(ctx context.Context, limit, offset int) ([]*models.RouteAudit, error) {
	if limit < 0 || offset < 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "limit and offset must not be negative", nil)
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	audits, err := s.repo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list route audits", err)
	}
	return audits, nil
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for audit := range s.eventChan {
		if err := s.processEvent(audit); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.String("trace_id", audit.TraceID),
				zap.Error(err))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(audit *models.RouteAudit) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, audit); err != nil {
		return fmt.Errorf("failed to insert route audit: %w", err)
	}
	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Dropped:       s.dropped,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int  `json:"buffer_size"`
	PendingEvents int  `json:"pending_events"`
	WorkerCount   int  `json:"worker_count"`
	Dropped       int  `json:"dropped"`
	Started       bool `json:"started"`
}
