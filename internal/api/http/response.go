package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/platform/requestctx"
)

// Response is the envelope for every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	codeNotFound   = "not_found"
	codeConflict   = "conflict"
	codeValidation = "validation_error"
	codeInternal   = "internal_error"
	codeMethod     = "method_not_allowed"
)

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Response{Success: true, Data: data})
}

// WriteMessage writes a success envelope with a message.
func WriteMessage(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, Response{Success: true, Data: data, Message: message})
}

// ErrorResponse writes an error envelope.
func ErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Response{Success: false, Error: code, Message: message})
}

// WriteError maps err to a status code. Unclassified errors are logged.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		ErrorResponse(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		ErrorResponse(w, http.StatusBadRequest, codeConflict, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		ErrorResponse(w, http.StatusBadRequest, codeValidation, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestctx.RequestID(r.Context())),
				zap.Error(err),
			)
		}
		ErrorResponse(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// MethodNotAllowed answers 405 with the allowed methods.
func MethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	ErrorResponse(w, http.StatusMethodNotAllowed, codeMethod, "method not allowed")
}

// NotFound answers 404 for unknown routes.
func NotFound(w http.ResponseWriter) {
	ErrorResponse(w, http.StatusNotFound, codeNotFound, "resource not found")
}

// DecodeJSON reads a JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.Validationf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validationf("request body is required")
		}
		return apperrors.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

// QueryInt64 parses an optional integer query parameter.
func QueryInt64(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.Validationf("%s must be an integer", key)
	}
	return &v, nil
}

// QueryInt parses an integer query parameter with a default.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validationf("%s must be an integer", key)
	}
	return v, nil
}

// QueryBool reports whether key is set to a true value.
func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}

// PathSegments splits the path below prefix. "/api/v1/points/7" with prefix
// "/api/v1/points" yields ["7"].
func PathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// ParseID parses a numeric path id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFoundf("invalid id %q", raw)
	}
	return id, nil
}

func writeEnvelope(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
