package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"recipeshare_backend/apierr"
	"recipeshare_backend/auth"
	"recipeshare_backend/response"
)

const APIKeyHeader = "api-key"

// SessionParser turns a bearer token into a session.
type SessionParser interface {
	SessionFor(token string) (auth.Session, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(p SessionParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Error(w, apierr.Unauthorized("missing bearer token"))
				return
			}
			sess, err := p.SessionFor(token)
			if err != nil {
				response.Error(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches a session when a valid token is present and ignores
// the header otherwise.
func OptionalAuth(p SessionParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if sess, err := p.SessionFor(token); err == nil {
					r = r.WithContext(auth.WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIKey gates service-to-service routes on the api-key header. With
// no key configured the routes are closed.
func RequireAPIKey(key string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.Error(w, apierr.Unauthorized("invalid api key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
