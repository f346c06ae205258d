package controllers

import (
	"net/http"
	"time"

	"blognest/app/middleware"
	"blognest/app/models"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/rs/zerolog"
)

// AuthController handles registration, login and logout
type AuthController struct {
	users        *services.UserService
	sessions     session.Store
	ttl          time.Duration
	secureCookie bool
	log          zerolog.Logger
}

// NewAuthController creates a new AuthController. ttl is the lifetime of
// the session cookie and should match the session store.
func NewAuthController(users *services.UserService, sessions session.Store, ttl time.Duration, log zerolog.Logger) *AuthController {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &AuthController{users: users, sessions: sessions, ttl: ttl, log: log}
}

// WithSecureCookie marks the session cookie Secure.
func (ac *AuthController) WithSecureCookie(secure bool) *AuthController {
	ac.secureCookie = secure
	return ac
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned by login and the session endpoint.
type sessionResponse struct {
	Token    string             `json:"token,omitempty"`
	User     *models.PublicUser `json:"user,omitempty"`
	Identity *session.Identity  `json:"identity,omitempty"`
}

// Register creates an account.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendServiceError(w, r, ac.log, err)
		return
	}

	user, err := ac.users.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		sendServiceError(w, r, ac.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// Login verifies credentials and opens a session.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendServiceError(w, r, ac.log, err)
		return
	}

	user, err := ac.users.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		sendServiceError(w, r, ac.log, err)
		return
	}

	token, err := ac.sessions.Create(r.Context(), identityOf(user))
	if err != nil {
		ac.log.Error().Err(err).Msg("create session")
		sendError(w, "Could not create session", http.StatusServiceUnavailable)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ac.ttl / time.Second),
		HttpOnly: true,
		Secure:   ac.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sendJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

// Logout revokes the caller's session, if any.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if token == "" {
		token = middleware.SessionToken(r)
	}
	if token != "" {
		if err := ac.sessions.Revoke(r.Context(), token); err != nil {
			ac.log.Warn().Err(err).Msg("revoke session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session returns the identity behind the current session.
func (ac *AuthController) Session(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	sendJSON(w, http.StatusOK, sessionResponse{Identity: &id})
}

func identityOf(user *models.PublicUser) session.Identity {
	return session.Identity{
		UserID:      user.ID,
		DisplayName: user.Name,
		Role:        user.Role,
		Avatar:      user.Avatar,
	}
}
