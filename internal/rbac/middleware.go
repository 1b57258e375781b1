package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/klinika-id/klinika/internal/shared"
)

// Middleware wires declarative authorization helpers for HTTP handlers. It
// reads the principal installed by the authentication interceptor; a missing
// principal is treated as an empty authority set.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current principal holds at least one of the
// required authorities.
func (m Middleware) RequireAny(authorities ...string) func(http.Handler) http.Handler {
	required := normalizeAuthorities(authorities)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			for _, authority := range required {
				if principal.HasAuthority(authority) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r)
		})
	}
}

// RequireAll ensures the current principal holds every required authority.
func (m Middleware) RequireAll(authorities ...string) func(http.Handler) http.Handler {
	required := normalizeAuthorities(authorities)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			for _, authority := range required {
				if !principal.HasAuthority(authority) {
					m.deny(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if m.Logger != nil {
		m.Logger.Warn("access denied", slog.String("path", r.URL.Path))
	}
	shared.RespondError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
}

func normalizeAuthorities(authorities []string) []string {
	seen := make(map[string]struct{}, len(authorities))
	normalized := make([]string, 0, len(authorities))
	for _, authority := range authorities {
		authority = strings.TrimSpace(authority)
		if authority == "" {
			continue
		}
		if _, ok := seen[authority]; ok {
			continue
		}
		seen[authority] = struct{}{}
		normalized = append(normalized, authority)
	}
	return normalized
}
