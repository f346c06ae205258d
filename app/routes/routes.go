package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"blognest/app/controllers"
	"blognest/app/media"
	"blognest/app/middleware"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Pinger is a dependency whose reachability /healthz reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is built from. Media may be
// nil when uploads are not configured.
type Deps struct {
	Posts         *services.PostService
	Comments      *services.CommentService
	Users         *services.UserService
	Sessions      session.Store
	SessionTTL    time.Duration
	SecureCookies bool
	Media         media.Store
	Health        map[string]Pinger
	Log           zerolog.Logger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.Recoverer(d.Log))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Authenticate(d.Sessions, d.Log))

	auth := controllers.NewAuthController(d.Users, d.Sessions, d.SessionTTL, d.Log).WithSecureCookie(d.SecureCookies)
	users := controllers.NewUserController(d.Users, d.Log)
	posts := controllers.NewPostController(d.Posts, d.Log)
	comments := controllers.NewCommentController(d.Comments, d.Log)
	upload := controllers.NewUploadController(d.Media, d.Log)

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.HandleFunc("/healthz", healthz(d.Health)).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	private := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	// Auth endpoints
	api.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	api.Handle("/auth/session", private(auth.Session)).Methods(http.MethodGet)

	// Users
	api.Handle("/users/me", private(users.Me)).Methods(http.MethodGet)
	api.Handle("/users/me", private(users.UpdateMe)).Methods(http.MethodPut)
	api.Handle("/users/me/password", private(users.ChangePassword)).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", users.Show).Methods(http.MethodGet)

	// Posts API endpoints. Fixed paths are registered before /{id}.
	p := api.PathPrefix("/posts").Subrouter()
	p.HandleFunc("", posts.Index).Methods(http.MethodGet)
	p.Handle("", private(posts.Create)).Methods(http.MethodPost)
	p.HandleFunc("/popular", posts.Popular).Methods(http.MethodGet)
	p.HandleFunc("/categories", posts.Categories).Methods(http.MethodGet)
	p.HandleFunc("/tags", posts.Tags).Methods(http.MethodGet)
	p.HandleFunc("/{id}", posts.Show).Methods(http.MethodGet)
	p.Handle("/{id}", private(posts.Update)).Methods(http.MethodPut)
	p.Handle("/{id}", private(posts.Delete)).Methods(http.MethodDelete)
	p.HandleFunc("/{id}/related", posts.Related).Methods(http.MethodGet)
	p.HandleFunc("/{id}/view", posts.View).Methods(http.MethodPost)
	p.Handle("/{id}/like", private(posts.Like)).Methods(http.MethodPost)
	p.Handle("/{id}/bookmark", private(posts.Bookmark)).Methods(http.MethodPost)

	// Comments API endpoints
	p.HandleFunc("/{id}/comments", comments.Index).Methods(http.MethodGet)
	p.Handle("/{id}/comments", private(comments.Create)).Methods(http.MethodPost)
	p.HandleFunc("/{id}/comments/count", comments.Count).Methods(http.MethodGet)
	p.Handle("/{id}/comments/{commentId}", private(comments.Update)).Methods(http.MethodPut)
	p.Handle("/{id}/comments/{commentId}", private(comments.Delete)).Methods(http.MethodDelete)
	p.Handle("/{id}/comments/{commentId}/like", private(comments.Like)).Methods(http.MethodPost)
	api.HandleFunc("/comments/{commentId}/replies", comments.Replies).Methods(http.MethodGet)

	// Media
	api.Handle("/upload", private(upload.Upload)).Methods(http.MethodPost)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	http.NotFound(w, r)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

// healthz pings every dependency with a short deadline.
func healthz(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, c := range checks {
			if err := c.Ping(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]interface{}{"status": overall, "checks": results})
	}
}
