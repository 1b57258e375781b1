package auth

import (
	"net/http"
	"strings"

	"github.com/klinika-id/klinika/internal/shared"
)

// Middleware resolves the bearer token into a request-scoped principal. It
// only decorates context: a missing, malformed, expired or mismatched token
// leaves the request anonymous and passes it through; rejection is the job
// of the authorization middleware downstream.
type Middleware struct {
	Tokens  *TokenService
	Builder *PrincipalBuilder
}

// Authenticate is the per-request interceptor.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		subject, ok := m.Tokens.ExtractSubject(token)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Builder.Build(r.Context(), subject)
		if err != nil {
			// Unknown subject stays anonymous; do not leak existence.
			next.ServeHTTP(w, r)
			return
		}
		if !m.Tokens.Validate(token, subject) {
			next.ServeHTTP(w, r)
			return
		}
		// Never overwrite a principal installed earlier in the chain.
		if shared.PrincipalFromContext(r.Context()) == nil {
			r = r.WithContext(shared.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
