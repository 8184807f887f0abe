package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/upb/media-gateway/models"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/review"
)

// MockRouter is a mock implementation of Router
type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Route(ctx context.Context, payload map[string]interface{}, traceID string) (*providers.Result, error) {
	args := m.Called(ctx, payload, traceID)
	if result := args.Get(0); result != nil {
		return result.(*providers.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReviewGenerator is a mock implementation of ReviewGenerator
type MockReviewGenerator struct {
	mock.Mock
}

func (m *MockReviewGenerator) Generate(ctx context.Context, payload map[string]interface{}, traceID string) (*review.Generation, error) {
	args := m.Called(ctx, payload, traceID)
	if generation := args.Get(0); generation != nil {
		return generation.(*review.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuditReader is a mock implementation of AuditReader
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) ListRecent(ctx context.Context, limit, offset int) ([]*models.RouteAudit, error) {
	args := m.Called(ctx, limit, offset)
	if audits := args.Get(0); audits != nil {
		return audits.([]*models.RouteAudit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditReader) ListByTraceID(ctx context.Context, traceID string) ([]*models.RouteAudit, error) {
	args := m.Called(ctx, traceID)
	if audits := args.Get(0); audits != nil {
		return audits.([]*models.RouteAudit), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubProvider is a fixed provider for registry-backed handlers
type stubProvider struct {
	name  string
	model string
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	return &providers.Result{Provider: p.name, Model: p.model, OutputText: "ok"}, nil
}
