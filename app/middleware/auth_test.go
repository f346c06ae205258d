package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blognest/app/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Create(ctx context.Context, id session.Identity) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) Lookup(ctx context.Context, token string) (session.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(session.Identity), args.Error(1)
}

func (m *mockSessions) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"none", "", "", ""},
		{"bearer", "Bearer abc", "", "abc"},
		{"bearer lowercase", "bearer abc", "", "abc"},
		{"other scheme", "Basic dXNlcg==", "", ""},
		{"cookie", "", "xyz", "xyz"},
		{"header wins", "Bearer abc", "xyz", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, SessionToken(req))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	sessions := new(mockSessions)
	ada := session.Identity{UserID: "u1", DisplayName: "Ada", Role: "user"}
	sessions.On("Lookup", mock.Anything, "good").Return(ada, nil)
	sessions.On("Lookup", mock.Anything, "stale").Return(session.Identity{}, session.ErrNoSession)
	sessions.On("Lookup", mock.Anything, "broken").Return(session.Identity{}, errors.New("redis down"))

	var (
		got   session.Identity
		authd bool
		token string
	)
	handler := Authenticate(sessions, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, authd = IdentityFrom(r.Context())
		token = TokenFrom(r.Context())
	}))

	serve := func(bearer string) {
		req := httptest.NewRequest("GET", "/", nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	serve("good")
	assert.True(t, authd)
	assert.Equal(t, ada, got)
	assert.Equal(t, "good", token)

	for _, bearer := range []string{"", "stale", "broken"} {
		serve(bearer)
		assert.False(t, authd, bearer)
		assert.Empty(t, token, bearer)
	}
	sessions.AssertNumberOfCalls(t, "Lookup", 3)
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), session.Identity{UserID: "u1"}, "tok"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireAuthSessionStoreDown(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("Lookup", mock.Anything, "stale").Return(session.Identity{}, session.ErrNoSession)
	sessions.On("Lookup", mock.Anything, "any").Return(session.Identity{}, errors.New("redis down"))

	var sessionErr error
	protected := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	public := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionErr = SessionErrFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	auth := Authenticate(sessions, zerolog.Nop())

	serve := func(h http.Handler, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		w := httptest.NewRecorder()
		auth(h).ServeHTTP(w, req)
		return w
	}

	w := serve(protected, "any")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Session store unavailable"}`, w.Body.String())

	w = serve(protected, "stale")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Optional-auth routes still serve the caller anonymously.
	w = serve(public, "any")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualError(t, sessionErr, "redis down")

	serve(public, "stale")
	assert.NoError(t, sessionErr)
}
