package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain"
)

// ErrorCode is the machine-readable error code of an API error.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest      ErrorCode = "bad_request"
	ErrorCodeUnauthorized    ErrorCode = "unauthorized"
	ErrorCodeInvalidAction   ErrorCode = "invalid_action"
	ErrorCodeSessionNotFound ErrorCode = "session_not_found"
	ErrorCodeSessionClosed   ErrorCode = "session_closed"
	ErrorCodeTooManySessions ErrorCode = "too_many_sessions"
	ErrorCodeUnknownFacet    ErrorCode = "unknown_facet"
	ErrorCodeSearchEndpoint  ErrorCode = "search_endpoint_error"
	ErrorCodeInternalError   ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorCodeSessionNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeUnknownFacet),
		sentinelHandler(domain.ErrInvalidAction, http.StatusBadRequest, ErrorCodeInvalidAction),
		sentinelHandler(domain.ErrInvalidSettings, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrTooManySessions, http.StatusServiceUnavailable, ErrorCodeTooManySessions),
		sentinelHandler(domain.ErrClosed, http.StatusGone, ErrorCodeSessionClosed),
		sentinelHandler(domain.ErrSearchEndpoint, http.StatusBadGateway, ErrorCodeSearchEndpoint),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidAction,
		domain.ErrInvalidSettings,
		domain.ErrTooManySessions,
		domain.ErrClosed,
		domain.ErrSearchEndpoint,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	// invalid actions carry the offending type and field, safe to echo
	if errors.Is(err, domain.ErrInvalidAction) {
		msg = err.Error()
	}
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
