package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxBodyBytes bounds request bodies read by DecodeJSONObject
const DefaultMaxBodyBytes = 1 << 20

var (
	// ErrBodyNotObject is returned when a request body is not a JSON object
	ErrBodyNotObject = errors.New("request body must be a JSON object")

	// ErrBodyTooLarge is returned when a request body exceeds the limit
	ErrBodyTooLarge = errors.New("request body is too large")
)

// ErrorResponse is the failure envelope shared by every endpoint
type ErrorResponse struct {
	Errors  []string               `json:"errors"`
	TraceID string                 `json:"trace_id"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps list and status payloads
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with data as-is
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteData writes a 200 OK response wrapping data and optional meta
func WriteData(w http.ResponseWriter, data interface{}, meta map[string]interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: meta})
}

// WriteErrors writes the failure envelope. messages must not be empty.
func WriteErrors(w http.ResponseWriter, status int, traceID string, messages []string, details map[string]interface{}) error {
	if len(messages) == 0 {
		messages = []string{http.StatusText(status)}
	}
	return WriteJSON(w, status, ErrorResponse{
		Errors:  messages,
		TraceID: traceID,
		Details: details,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, traceID string, messages ...string) error {
	return WriteErrors(w, http.StatusBadRequest, traceID, messages, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response
func WriteUnauthorized(w http.ResponseWriter, traceID, message string) error {
	if message == "" {
		message = "authentication required"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="media-gateway"`)
	return WriteErrors(w, http.StatusUnauthorized, traceID, []string{message}, nil)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, traceID, message string) error {
	if message == "" {
		message = "resource not found"
	}
	return WriteErrors(w, http.StatusNotFound, traceID, []string{message}, nil)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter, traceID, method string) error {
	return WriteErrors(w, http.StatusMethodNotAllowed, traceID,
		[]string{fmt.Sprintf("method %s not allowed", method)}, nil)
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, traceID, message string) error {
	if message == "" {
		message = "internal server error"
	}
	return WriteErrors(w, http.StatusInternalServerError, traceID, []string{message}, nil)
}

// DecodeJSONObject reads r's body as a single JSON object of at most limit bytes
func DecodeJSONObject(r *http.Request, limit int64) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}

	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrBodyNotObject
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, ErrBodyNotObject
	}
	return payload, nil
}
