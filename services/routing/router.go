package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/providers"
)

// Routing modes
const (
	ModeForced    = "forced"
	ModeAutomatic = "automatic"
)

// RouteRequest is a validated, immutable route payload
type RouteRequest struct {
	// Provider forces a single upstream when non-empty
	Provider string

	// Input is the primary user/content payload
	Input string

	// System is the system instruction passed to adapters
	System string

	// Metadata is opaque and only reaches logs and the audit trail
	Metadata map[string]interface{}
}

// RouterError is the stable failure contract of Route
type RouterError struct {
	Kind    services.ErrorType
	Errors  []string
	TraceID string
	Details map[string]interface{}
}

// Error implements the error interface
func (e *RouterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// ErrorType lets services.GetErrorType classify router failures
func (e *RouterError) ErrorType() services.ErrorType {
	return e.Kind
}

// Is matches services sentinels by kind
func (e *RouterError) Is(target error) bool {
	var domainErr *services.DomainError
	if errors.As(target, &domainErr) {
		return domainErr.Type == e.Kind
	}
	return false
}

func newRouterError(kind services.ErrorType, traceID string, details map[string]interface{}, messages ...string) *RouterError {
	return &RouterError{
		Kind:    kind,
		Errors:  messages,
		TraceID: traceID,
		Details: details,
	}
}

// RouteRecord summarizes one routed call for the audit trail
type RouteRecord struct {
	TraceID   string
	Profile   string
	Mode      string
	Provider  string
	Model     string
	Success   bool
	ErrorType services.ErrorType
	Attempts  []Attempt
	Metadata  map[string]interface{}
	Duration  time.Duration
	CreatedAt time.Time
}

// Recorder receives completed route records. Implementations must not block.
type Recorder interface {
	RecordRoute(ctx context.Context, record *RouteRecord)
}

// Router validates payloads and dispatches them to providers using either a
// forced provider or ordered automatic fallback.
type Router struct {
	profile    Profile
	candidates []providers.Provider
	byName     map[string]providers.Provider
	logger     *zap.Logger
	recorder   Recorder
}

// NewRouter builds a router for profile using the providers in registry.
// recorder may be nil.
func NewRouter(profile Profile, registry *providers.Registry, logger *zap.Logger, recorder Recorder) (*Router, error) {
	candidates, err := registry.Resolve(profile.Order)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.Name, err)
	}
	if len(profile.InputAliases) == 0 {
		profile.InputAliases = []string{"input"}
	}

	byName := make(map[string]providers.Provider, len(candidates))
	for _, candidate := range candidates {
		byName[strings.ToLower(candidate.Name())] = candidate
	}

	return &Router{
		profile:    profile,
		candidates: candidates,
		byName:     byName,
		logger:     logger.With(zap.String("profile", profile.Name)),
		recorder:   recorder,
	}, nil
}

// Profile returns the router's profile
func (r *Router) Profile() Profile {
	return r.profile
}

// SelectProviders returns the candidates for req: the forced provider alone,
// or the whole configured order.
func (r *Router) SelectProviders(req *RouteRequest) []providers.Provider {
	if req.Provider != "" {
		if provider, ok := r.byName[req.Provider]; ok {
			return []providers.Provider{provider}
		}
		return nil
	}
	return append([]providers.Provider(nil), r.candidates...)
}

// Validate checks payload and builds a RouteRequest. All violations are
// returned, in a stable order.
func (r *Router) Validate(payload map[string]interface{}) (*RouteRequest, []string) {
	var violations []string
	req := &RouteRequest{}

	input, ok := r.lookupInput(payload)
	if !ok {
		violations = append(violations, fmt.Sprintf("%s must be a non-empty string", strings.Join(r.profile.InputAliases, " or ")))
	}
	req.Input = input

	if raw, present := payload["provider"]; present && raw != nil {
		name, isString := raw.(string)
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case !isString:
			violations = append(violations, "provider must be a string")
		case name == "":
		case r.byName[name] == nil:
			violations = append(violations, fmt.Sprintf("provider must be one of: %s", strings.Join(r.profile.Order, ", ")))
		default:
			req.Provider = name
		}
	}

	if raw, present := payload["system"]; present && raw != nil {
		system, isString := raw.(string)
		if !isString {
			violations = append(violations, "system must be a string")
		}
		req.System = strings.TrimSpace(system)
	}

	if raw, present := payload["metadata"]; present && raw != nil {
		metadata, isMap := raw.(map[string]interface{})
		if !isMap {
			violations = append(violations, "metadata must be an object")
		}
		req.Metadata = metadata
	}

	targetLanguage := ""
	for _, alias := range r.profile.TargetLanguageAliases {
		raw, present := payload[alias]
		if !present || raw == nil {
			continue
		}
		value, isString := raw.(string)
		if !isString {
			violations = append(violations, fmt.Sprintf("%s must be a string", alias))
			break
		}
		if value = strings.TrimSpace(value); value != "" {
			targetLanguage = value
			break
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}
	if req.System == "" {
		req.System = r.profile.ComposeSystem(targetLanguage)
	}
	return req, nil
}

func (r *Router) lookupInput(payload map[string]interface{}) (string, bool) {
	for _, alias := range r.profile.InputAliases {
		if value, ok := payload[alias].(string); ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

// Route validates payload and routes it. The returned error, if any, is
// always a *RouterError.
func (r *Router) Route(ctx context.Context, payload map[string]interface{}, traceID string) (*providers.Result, error) {
	req, violations := r.Validate(payload)
	if len(violations) > 0 {
		r.logger.Info("route request rejected",
			zap.String("trace_id", traceID),
			zap.Strings("errors", violations),
		)
		return nil, newRouterError(services.ErrorTypeValidation, traceID, nil, violations...)
	}
	return r.RouteRequest(ctx, req, traceID)
}

// RouteRequest routes an already validated request
func (r *Router) RouteRequest(ctx context.Context, req *RouteRequest, traceID string) (*providers.Result, error) {
	start := time.Now()
	mode := ModeAutomatic
	if req.Provider != "" {
		mode = ModeForced
	}

	candidates := r.SelectProviders(req)
	if len(candidates) == 0 {
		routeErr := newRouterError(services.ErrorTypeConfig, traceID, nil,
			fmt.Sprintf("no providers configured for %s", r.profile.Name))
		if mode == ModeForced {
			routeErr.Errors[0] = fmt.Sprintf("provider %s is not configured", req.Provider)
		}
		r.logger.Error("route has no providers", zap.String("trace_id", traceID), zap.String("mode", mode))
		r.record(ctx, req, traceID, mode, start, nil, nil, routeErr.Kind)
		return nil, routeErr
	}

	adapterReq := &providers.Request{
		Input:   req.Input,
		System:  req.System,
		TraceID: traceID,
	}
	result, attempts, err := FirstSuccess(ctx, candidates, func(ctx context.Context, provider providers.Provider) (*providers.Result, error) {
		attemptStart := time.Now()
		result, err := provider.Complete(ctx, adapterReq)
		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("provider", provider.Name()),
			zap.String("mode", mode),
			zap.Duration("duration", time.Since(attemptStart)),
			zap.Any("metadata", req.Metadata),
		}
		if err != nil {
			r.logger.Warn("provider attempt failed",
				append(fields, zap.String("error_type", string(providers.KindOf(err))), zap.Error(err))...)
			return nil, err
		}
		r.logger.Info("provider attempt succeeded", fields...)
		return result, nil
	})

	if err == nil {
		r.record(ctx, req, traceID, mode, start, result, attempts, "")
		return result, nil
	}

	var routeErr *RouterError
	switch {
	case errors.Is(err, context.Canceled):
		routeErr = callerError(services.ErrorTypeUpstream, "request cancelled", req, traceID, attempts)
	case errors.Is(err, context.DeadlineExceeded):
		routeErr = callerError(services.ErrorTypeTimeout, "request deadline exceeded", req, traceID, attempts)
	case mode == ModeForced:
		routeErr = forcedError(req.Provider, traceID, attempts)
	default:
		routeErr = newRouterError(services.ErrorTypeUpstream, traceID, attemptDetails(attempts), "providers unavailable")
	}

	r.logger.Warn("route failed",
		zap.String("trace_id", traceID),
		zap.String("mode", mode),
		zap.String("error_type", string(routeErr.Kind)),
		zap.Int("attempts", len(attempts)),
	)
	r.record(ctx, req, traceID, mode, start, nil, attempts, routeErr.Kind)
	return nil, routeErr
}

// forcedError maps the single forced attempt: config stays config, timeout
// stays timeout, anything else is upstream.
func forcedError(provider, traceID string, attempts []Attempt) *RouterError {
	kind := services.ErrorTypeUpstream
	messages := []string{fmt.Sprintf("provider %s failed", provider)}
	if len(attempts) > 0 {
		last := attempts[len(attempts)-1]
		switch last.ErrorType {
		case services.ErrorTypeConfig:
			kind = services.ErrorTypeConfig
			messages[0] = fmt.Sprintf("provider %s is misconfigured", provider)
		case services.ErrorTypeTimeout:
			kind = services.ErrorTypeTimeout
			messages[0] = fmt.Sprintf("provider %s timed out", provider)
		}
		messages = append(messages, last.Error)
	}

	details := attemptDetails(attempts)
	details["provider"] = provider
	return newRouterError(kind, traceID, details, messages...)
}

// callerError maps a cancelled or expired caller context. A forced route
// names its provider.
func callerError(kind services.ErrorType, message string, req *RouteRequest, traceID string, attempts []Attempt) *RouterError {
	details := attemptDetails(attempts)
	if req.Provider != "" {
		message = fmt.Sprintf("provider %s: %s", req.Provider, message)
		details["provider"] = req.Provider
	}
	return newRouterError(kind, traceID, details, message)
}

func attemptDetails(attempts []Attempt) map[string]interface{} {
	return map[string]interface{}{
		"attempts": attempts,
	}
}

func (r *Router) record(ctx context.Context, req *RouteRequest, traceID, mode string, start time.Time, result *providers.Result, attempts []Attempt, errType services.ErrorType) {
	if r.recorder == nil {
		return
	}

	record := &RouteRecord{
		TraceID:   traceID,
		Profile:   r.profile.Name,
		Mode:      mode,
		Provider:  req.Provider,
		Success:   result != nil,
		ErrorType: errType,
		Attempts:  attempts,
		Metadata:  req.Metadata,
		Duration:  time.Since(start),
		CreatedAt: start.UTC(),
	}
	if result != nil {
		record.Provider = result.Provider
		record.Model = result.Model
	}
	r.recorder.RecordRoute(ctx, record)
}
