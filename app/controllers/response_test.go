package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"blognest/app/models"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSendServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "is required"}}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("%w: bad json", services.ErrValidation), http.StatusBadRequest},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", errForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("post %w", services.ErrNotFound), http.StatusNotFound},
		{"duplicate", services.ErrDuplicateEmail, http.StatusConflict},
		{"unavailable", fmt.Errorf("%w: closed", services.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			sendServiceError(w, httptest.NewRequest("GET", "/api/x", nil), zerolog.Nop(), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, decode[errorResponse](t, w).Error)
		})
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	w := httptest.NewRecorder()
	sendServiceError(w, httptest.NewRequest("GET", "/api/x", nil), zerolog.Nop(), errors.New("disk on fire at /var/lib"))
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestCanModify(t *testing.T) {
	owner := "65f1c2a9e4b0a1b2c3d4e5f6"
	tests := []struct {
		name string
		id   session.Identity
		want bool
	}{
		{"owner", session.Identity{UserID: owner, Role: models.RoleUser}, true},
		{"owner, different case", session.Identity{UserID: "65F1C2A9E4B0A1B2C3D4E5F6", Role: models.RoleUser}, true},
		{"admin", session.Identity{UserID: "admin", Role: models.RoleAdmin}, true},
		{"moderator", session.Identity{UserID: "mod", Role: models.RoleModerator}, false},
		{"stranger", session.Identity{UserID: "x", Role: models.RoleUser}, false},
		{"anonymous", session.Identity{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canModify(tt.id, owner))
		})
	}
	assert.False(t, canModify(session.Identity{}, ""))
}
