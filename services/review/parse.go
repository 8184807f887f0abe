package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/utils"
)

const fence = "```"

// ParseDecision turns untrusted model text into a validated Decision.
// Failures are invalid_output domain errors.
func ParseDecision(text string) (*Decision, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	decision, err := decodeDecision(obj)
	if err != nil {
		return nil, err
	}

	if err := ValidateDecision(decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// ExtractJSONObject is the tolerant step: it strips one fenced code block
// and, failing a direct parse, retries on the slice from the first '{' to
// the last '}'.
func ExtractJSONObject(text string) (map[string]interface{}, error) {
	trimmed := stripCodeFence(strings.TrimSpace(text))
	if trimmed == "" {
		return nil, invalidOutput("output is empty", nil)
	}

	obj, directErr := decodeObject(trimmed)
	if directErr == nil && obj != nil {
		return obj, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, invalidOutput("output does not contain a JSON object", directErr)
	}

	obj, err := decodeObject(trimmed[start : end+1])
	if err != nil || obj == nil {
		return nil, invalidOutput("output does not contain a valid JSON object", err)
	}
	return obj, nil
}

// decodeObject parses exactly one JSON object. Numbers stay json.Number so
// out-of-range values reach field validation.
func decodeObject(text string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return obj, nil
}

// stripCodeFence removes a single ```lang ... ``` wrapper if present
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, fence) || !strings.HasSuffix(text, fence) || len(text) < 2*len(fence) {
		return text
	}

	inner := text[len(fence) : len(text)-len(fence)]
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
		// drop the language tag line
		if tag := strings.TrimSpace(inner[:newline]); !strings.ContainsAny(tag, "{[") {
			inner = inner[newline+1:]
		}
	} else {
		inner = strings.TrimLeft(inner, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-")
	}
	return strings.TrimSpace(inner)
}

// decodeDecision reads fields defensively. Branch fields other than the one
// selected by decision_type are not carried.
func decodeDecision(obj map[string]interface{}) (*Decision, error) {
	rawType, _ := firstString(obj, "decision_type", "decisionType")
	decision := &Decision{
		DecisionType: DecisionType(strings.ToUpper(strings.TrimSpace(rawType))),
	}

	if !decision.DecisionType.Valid() {
		return nil, invalidOutput(fmt.Sprintf("decision_type %q is not one of: %s", rawType, strings.Join(decisionTypeNames(), ", ")), nil)
	}

	confidence, err := readConfidence(obj)
	if err != nil {
		return nil, err
	}
	decision.Confidence = confidence

	switch decision.DecisionType {
	case DecisionSpeak:
		decision.ReviewText, _ = firstString(obj, "review_text", "reviewText")
	case DecisionSilence:
		decision.Reason, _ = firstString(obj, "reason")
	case DecisionExplainConflict:
		decision.Explanation, _ = firstString(obj, "explanation")
	case DecisionAskLightQuestion:
		decision.LightQuestion, _ = firstString(obj, "light_question", "lightQuestion")
	}

	decision.AnchorsUsed = readStringList(obj, "anchors_used", "anchorsUsed")
	if mismatches, ok := lookup(obj, "mismatches").([]interface{}); ok {
		decision.Mismatches = mismatches
	}
	if match, ok := lookup(obj, "structural_match", "structuralMatch").(bool); ok {
		decision.StructuralMatch = &match
	}
	return decision, nil
}

// ValidateDecision is the strict step over an already decoded Decision
func ValidateDecision(decision *Decision) error {
	if decision == nil {
		return invalidOutput("decision is missing", nil)
	}
	if math.IsNaN(decision.Confidence) || math.IsInf(decision.Confidence, 0) {
		return invalidOutput("confidence must be a finite number", nil)
	}

	if err := utils.ValidateStruct(decision); err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			messages := validationErr.Messages()
			domainErr := services.NewDomainError(services.ErrorTypeInvalidOutput, messages[0], err)
			return domainErr.WithDetail("errors", messages)
		}
		return invalidOutput("decision validation failed", err)
	}
	return nil
}

func readConfidence(obj map[string]interface{}) (float64, error) {
	raw, present := obj["confidence"]
	if !present || raw == nil {
		return 0, invalidOutput("confidence is required", nil)
	}

	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil && !math.IsInf(parsed, 0) {
			return 0, invalidOutput(fmt.Sprintf("confidence %q is not numeric", v), err)
		}
		value = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil && !math.IsInf(parsed, 0) {
			return 0, invalidOutput(fmt.Sprintf("confidence %q is not numeric", v), err)
		}
		value = parsed
	default:
		return 0, invalidOutput("confidence must be a number", nil)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalidOutput("confidence must be a finite number", nil)
	}
	return value, nil
}

func lookup(obj map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first non-blank string among keys
func firstString(obj map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// readStringList returns nil unless the value is an array of strings
func readStringList(obj map[string]interface{}, keys ...string) []string {
	items, ok := lookup(obj, keys...).([]interface{})
	if !ok {
		return nil
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		list = append(list, s)
	}
	return list
}

func invalidOutput(message string, err error) error {
	return services.NewDomainError(services.ErrorTypeInvalidOutput, message, err)
}
