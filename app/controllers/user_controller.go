package controllers

import (
	"net/http"

	"blognest/app/middleware"
	"blognest/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// UserController handles profile requests
type UserController struct {
	users *services.UserService
	log   zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(users *services.UserService, log zerolog.Logger) *UserController {
	return &UserController{users: users, log: log}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Me returns the caller's profile.
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	user, err := uc.users.GetUserByID(r.Context(), viewer(r))
	if err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

// UpdateMe applies a profile update for the caller.
func (uc *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var update services.UserUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}

	user, err := uc.users.UpdateUser(r.Context(), viewer(r), update)
	if err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

// ChangePassword replaces the caller's password.
func (uc *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}

	if err := uc.users.ChangePassword(r.Context(), viewer(r), req.CurrentPassword, req.NewPassword); err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Show returns another user's profile. Email addresses are only shown to
// their owner and to admins.
func (uc *UserController) Show(w http.ResponseWriter, r *http.Request) {
	user, err := uc.users.GetUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendServiceError(w, r, uc.log, err)
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	if !canModify(id, user.ID) {
		user.Email = ""
	}
	sendJSON(w, http.StatusOK, user)
}
