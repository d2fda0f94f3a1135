package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/iho/emart/internal/adapter/http/dto"
	"github.com/iho/emart/internal/domain"
)

const msgInternal = "something went wrong"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Fields: fields})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err to the client. Unexpected errors are logged and
// hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapDomainError(err)

	switch status {
	case http.StatusBadRequest:
		var ve *domain.ValidationError
		errors.As(err, &ve)
		writeError(w, status, "validation failed", ve.Fields)
	case http.StatusInternalServerError:
		hlog.FromRequest(r).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, msgInternal, nil)
	default:
		writeError(w, status, err.Error(), nil)
	}
}

// decode reads a JSON body into req and runs its validation tags. It writes
// the error response itself and reports whether the handler may proceed.
func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", map[string]string{"body": err.Error()})
		return false
	}

	if err := dto.Validate(req); err != nil {
		respondError(w, r, err)
		return false
	}

	return true
}

// pathID parses a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{name: "Must be a positive integer"})
		return 0, false
	}
	return id, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseInt64Query parses an int64 query parameter, zero when absent or invalid.
func parseInt64Query(r *http.Request, key string) int64 {
	i, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return i
}
