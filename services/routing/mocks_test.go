package routing

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/upb/media-gateway/services/providers"
)

// MockProvider is a mock implementation of providers.Provider
type MockProvider struct {
	mock.Mock
	name  string
	model string
}

func newMockProvider(name string) *MockProvider {
	return &MockProvider{name: name, model: name + "-model"}
}

func (m *MockProvider) Name() string  { return m.name }
func (m *MockProvider) Model() string { return m.model }

func (m *MockProvider) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.Result), args.Error(1)
}

func (m *MockProvider) succeed(text string) *MockProvider {
	m.On("Complete", mock.Anything, mock.Anything).Return(&providers.Result{
		Provider:   m.name,
		Model:      m.model,
		OutputText: text,
	}, nil)
	return m
}

func (m *MockProvider) fail(err error) *MockProvider {
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, err)
	return m
}

// recorderStub collects route records
type recorderStub struct {
	mu      sync.Mutex
	records []*RouteRecord
}

func (r *recorderStub) RecordRoute(ctx context.Context, record *RouteRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}
