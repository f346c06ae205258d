package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"blognest/app/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionCookie is the cookie carrying the session token for browsers.
const SessionCookie = "session"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenKey
	requestIDKey
	sessionErrKey
)

// RequestID assigns each request an id, reusing a sane incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithIdentity attaches an authenticated identity and its token to ctx.
func WithIdentity(ctx context.Context, id session.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, tokenKey, token)
}

// IdentityFrom returns the caller identity, if the request is authenticated.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey).(session.Identity)
	return id, ok && id.UserID != ""
}

// TokenFrom returns the session token of an authenticated request.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// SessionErrFrom returns the error that prevented the session lookup, or nil.
func SessionErrFrom(ctx context.Context) error {
	err, _ := ctx.Value(sessionErrKey).(error)
	return err
}

// SessionToken extracts a token from the Authorization header or the
// session cookie, in that order.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate resolves the session token, when present, to an identity.
// Requests without a valid session continue anonymously. When the session
// store cannot be reached the error is kept on the context for RequireAuth.
func Authenticate(sessions session.Store, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := sessions.Lookup(r.Context(), token)
			switch {
			case err == nil:
				r = r.WithContext(WithIdentity(r.Context(), id, token))
			case !errors.Is(err, session.ErrNoSession):
				log.Warn().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("session lookup failed")
				r = r.WithContext(context.WithValue(r.Context(), sessionErrKey, err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests with 401, or 503 when the session
// store was unavailable.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			if SessionErrFrom(r.Context()) != nil {
				writeError(w, "Session store unavailable", http.StatusServiceUnavailable)
				return
			}
			writeError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
