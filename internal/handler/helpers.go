package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, domain.Envelope{Success: true, Data: data})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	writeJSON(w, http.StatusOK, domain.Envelope{Success: true, Count: &n, Data: items})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.Envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string, errs ...string) {
	writeJSON(w, status, domain.Envelope{Success: false, Message: msg, Errors: errs})
}

// decodeJSON reads a JSON body into v. Malformed or oversized bodies are
// reported as validation errors.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.NewValidation("request body too large")
		case errors.Is(err, io.EOF):
			return domain.NewValidation("request body is required")
		default:
			return domain.NewValidation("invalid request body")
		}
	}
	return nil
}

// readRaw returns the body as a JSON object for partial updates.
func readRaw(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, domain.NewValidation("request body must be a JSON object")
	}
	return raw, nil
}

// listQuery builds a list query from the whitelisted query parameters.
func listQuery(r *http.Request, filters []string) domain.Query {
	q := domain.Query{}
	params := r.URL.Query()
	for _, f := range filters {
		if v := params.Get(f); v != "" {
			if q.Match == nil {
				q.Match = domain.Match{}
			}
			q.Match[f] = v
		}
	}
	if v := params.Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 500 {
			q.Limit = n
		}
	}
	return q
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var conflict *domain.ErrConflict
	var unavailable *domain.ErrUnavailable
	var rateLimited *domain.ErrRateLimited
	var circuitOpen *domain.ErrCircuitOpen
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Message, validation.Errors...)
	case errors.As(err, &unauthorized):
		logger.Debug("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access",
			zap.String("role", string(forbidden.Role)),
			zap.String("resource", forbidden.Resource),
			zap.String("action", forbidden.Action),
		)
		writeError(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &unavailable):
		logger.Warn("store unavailable", zap.Stringer("state", unavailable.State))
		writeError(w, http.StatusServiceUnavailable, unavailable.Error())
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfterSeconds))
		writeError(w, http.StatusTooManyRequests, rateLimited.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
