package review

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/providers"
)

// DefaultSystemPrompt instructs the model to answer with a decision object
const DefaultSystemPrompt = `You are a film review gate. Read the material and decide how to respond.
Reply with a single JSON object and nothing else, with these fields:
- "decision_type": one of "SPEAK", "SILENCE", "EXPLAIN_CONFLICT", "ASK_LIGHT_QUESTION"
- "confidence": a number
- for SPEAK, "review_text": a review of at least 500 words
- for SILENCE, "reason"
- for EXPLAIN_CONFLICT, "explanation"
- for ASK_LIGHT_QUESTION, "light_question"
Optionally include "anchors_used" (array of strings), "mismatches" (array) and "structural_match" (boolean).`

// Router is the routing capability the review service depends on
type Router interface {
	Route(ctx context.Context, payload map[string]interface{}, traceID string) (*providers.Result, error)
}

// Generation is a routed result together with its validated decision
type Generation struct {
	Result   *providers.Result
	Decision *Decision
}

// Service generates review decisions through a router
type Service struct {
	router       Router
	systemPrompt string
	logger       *zap.Logger
}

// NewService creates a review service. An empty systemPrompt selects
// DefaultSystemPrompt.
func NewService(router Router, systemPrompt string, logger *zap.Logger) *Service {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Service{
		router:       router,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Generate routes payload and validates the model output as a Decision.
// Router errors are returned unchanged; an unusable output is an
// invalid_output domain error carrying the provider and model.
func (s *Service) Generate(ctx context.Context, payload map[string]interface{}, traceID string) (*Generation, error) {
	routed := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		routed[k] = v
	}
	switch system := routed["system"].(type) {
	case nil:
		routed["system"] = s.systemPrompt
	case string:
		if strings.TrimSpace(system) == "" {
			routed["system"] = s.systemPrompt
		}
	}

	result, err := s.router.Route(ctx, routed, traceID)
	if err != nil {
		return nil, err
	}

	decision, err := ParseDecision(result.OutputText)
	if err != nil {
		s.logger.Warn("model output rejected",
			zap.String("trace_id", traceID),
			zap.String("provider", result.Provider),
			zap.String("model", result.Model),
			zap.Error(err),
		)

		domainErr := services.NewDomainError(services.ErrorTypeInvalidOutput, "model output failed validation", err).
			WithDetail("provider", result.Provider).
			WithDetail("model", result.Model)
		if messages, ok := services.GetErrorDetails(err)["errors"]; ok {
			domainErr.WithDetail("errors", messages)
		} else {
			domainErr.WithDetail("errors", []string{errorMessage(err)})
		}
		return nil, domainErr
	}

	s.logger.Info("review decision generated",
		zap.String("trace_id", traceID),
		zap.String("provider", result.Provider),
		zap.String("decision_type", string(decision.DecisionType)),
		zap.Float64("confidence", decision.Confidence),
	)
	return &Generation{Result: result, Decision: decision}, nil
}

func errorMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
