package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blognest/app/middleware"
	"blognest/app/models"
	"blognest/app/repositories"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/rs/zerolog"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

var errForbidden = errors.New("you do not have permission to modify this resource")

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

// sendServiceError maps a service error kind to its HTTP status. Unexpected
// errors are logged and hidden from the client.
func sendServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, services.ErrValidation):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		sendError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, errForbidden):
		sendError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrDuplicateEmail):
		sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(r.Context())).Msg("store unavailable")
		sendError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(r.Context())).Msg("request failed")
		sendError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", services.ErrValidation, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Fields: map[string]string{name: "must be an integer"}}
	}
	return n, nil
}

// viewer returns the caller's user id, or "" for anonymous requests.
func viewer(r *http.Request) string {
	id, _ := middleware.IdentityFrom(r.Context())
	return id.UserID
}

// canModify reports whether the caller owns the resource or is an admin.
func canModify(id session.Identity, ownerID string) bool {
	if id.UserID == "" {
		return false
	}
	return id.Role == models.RoleAdmin || repositories.Equal(ownerID, id.UserID)
}
