package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/vocalis-app/vocalis/internal/auth"
)

// contextKey is a private type for request-context values.
type contextKey string

const sessionContextKey contextKey = "session"

// sessionFrom returns the authenticated session attached by requireAuth.
func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return sess
}

// bearerToken extracts the token from the Authorization header or, for
// browser WebSocket clients that cannot set headers, the access_token query
// parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
	}
	return r.URL.Query().Get("access_token")
}

// requireAuth resolves the bearer token and attaches the session to the
// request context, rejecting unauthenticated requests with 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := s.auth.Resolve(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
