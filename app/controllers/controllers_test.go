package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blognest/app/middleware"
	"blognest/app/repositories/mock"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// memSessions is a session.Store kept in a map.
type memSessions struct {
	mu     sync.Mutex
	n      int
	tokens map[string]session.Identity
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: make(map[string]session.Identity)}
}

func (m *memSessions) Create(ctx context.Context, id session.Identity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	token := fmt.Sprintf("token-%d", m.n)
	m.tokens[token] = id
	return token, nil
}

func (m *memSessions) Lookup(ctx context.Context, token string) (session.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return session.Identity{}, session.ErrNoSession
	}
	return id, nil
}

func (m *memSessions) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type testServer struct {
	router   *mux.Router
	sessions *memSessions
	posts    *mock.PostRepository
	comments *mock.CommentRepository
	users    *mock.UserRepository
	postSvc  *services.PostService
	userSvc  *services.UserService
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	ts := &testServer{
		sessions: newMemSessions(),
		posts:    mock.NewPostRepository(),
		comments: mock.NewCommentRepository(),
		users:    mock.NewUserRepository(),
	}
	ts.postSvc = services.NewPostService(ts.posts, ts.comments)
	commentSvc := services.NewCommentService(ts.comments, ts.posts)
	ts.userSvc = services.NewUserService(ts.users, services.MinPasswordCost)

	auth := NewAuthController(ts.userSvc, ts.sessions, time.Hour, log)
	users := NewUserController(ts.userSvc, log)
	posts := NewPostController(ts.postSvc, log)
	comments := NewCommentController(commentSvc, log)

	r := mux.NewRouter()
	r.Use(middleware.Authenticate(ts.sessions, log))
	api := r.PathPrefix("/api").Subrouter()
	private := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	api.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	api.Handle("/auth/session", private(auth.Session)).Methods(http.MethodGet)

	api.Handle("/users/me", private(users.Me)).Methods(http.MethodGet)
	api.Handle("/users/me", private(users.UpdateMe)).Methods(http.MethodPut)
	api.Handle("/users/me/password", private(users.ChangePassword)).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", users.Show).Methods(http.MethodGet)

	api.HandleFunc("/posts", posts.Index).Methods(http.MethodGet)
	api.Handle("/posts", private(posts.Create)).Methods(http.MethodPost)
	api.HandleFunc("/posts/popular", posts.Popular).Methods(http.MethodGet)
	api.HandleFunc("/posts/categories", posts.Categories).Methods(http.MethodGet)
	api.HandleFunc("/posts/tags", posts.Tags).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", posts.Show).Methods(http.MethodGet)
	api.Handle("/posts/{id}", private(posts.Update)).Methods(http.MethodPut)
	api.Handle("/posts/{id}", private(posts.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/related", posts.Related).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/view", posts.View).Methods(http.MethodPost)
	api.Handle("/posts/{id}/like", private(posts.Like)).Methods(http.MethodPost)
	api.Handle("/posts/{id}/bookmark", private(posts.Bookmark)).Methods(http.MethodPost)

	api.HandleFunc("/posts/{id}/comments", comments.Index).Methods(http.MethodGet)
	api.Handle("/posts/{id}/comments", private(comments.Create)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments/count", comments.Count).Methods(http.MethodGet)
	api.Handle("/posts/{id}/comments/{commentId}", private(comments.Update)).Methods(http.MethodPut)
	api.Handle("/posts/{id}/comments/{commentId}", private(comments.Delete)).Methods(http.MethodDelete)
	api.Handle("/posts/{id}/comments/{commentId}/like", private(comments.Like)).Methods(http.MethodPost)
	api.HandleFunc("/comments/{commentId}/replies", comments.Replies).Methods(http.MethodGet)

	ts.router = r
	return ts
}

// login opens a session directly in the store, skipping bcrypt.
func (ts *testServer) login(t *testing.T, userID, name, role string) string {
	t.Helper()
	token, err := ts.sessions.Create(context.Background(), session.Identity{UserID: userID, DisplayName: name, Role: role})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const postBody = `{
	"title": "Test Post",
	"description": "A test post",
	"content": "This is a test post content",
	"category": "Technology",
	"tags": ["go"],
	"status": "published"
}`
