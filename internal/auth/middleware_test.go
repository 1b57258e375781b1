package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klinika-id/klinika/internal/shared"
)

func newMiddlewareFixture(t *testing.T, ttl time.Duration) (Middleware, *TokenService) {
	t.Helper()
	tokens, err := NewTokenService(testSecret, ttl)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	store := &stubStore{users: map[string]*User{
		"3201011212870001": {ID: 7, NationalID: "3201011212870001", IsActive: true},
	}}
	resolver := &stubResolver{authorities: map[int64][]string{
		7: {"ROLE_Doctor", "VIEW_PATIENTS"},
	}}
	return Middleware{Tokens: tokens, Builder: NewPrincipalBuilder(store, resolver)}, tokens
}

func capturePrincipal(seen **shared.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateInstallsPrincipal(t *testing.T) {
	mw, tokens := newMiddlewareFixture(t, 30*time.Minute)
	token, err := tokens.Issue(&shared.Principal{Identifier: "3201011212870001", Authorities: []string{"ROLE_Doctor"}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *shared.Principal
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(capturePrincipal(&seen)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if seen == nil {
		t.Fatal("expected principal in context")
	}
	if !seen.HasAuthority("VIEW_PATIENTS") {
		t.Fatalf("expected live authorities, got %v", seen.Authorities)
	}
}

func TestAuthenticateAnonymousPassThrough(t *testing.T) {
	mw, tokens := newMiddlewareFixture(t, 30*time.Minute)
	strangers, err := tokens.Issue(&shared.Principal{Identifier: "9999999999999999"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := map[string]string{
		"no header":       "",
		"not bearer":      "Basic dXNlcjpwYXNz",
		"garbage token":   "Bearer not-a-jwt",
		"unknown subject": "Bearer " + strangers,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var seen *shared.Principal
			req := httptest.NewRequest(http.MethodGet, "/patients", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(capturePrincipal(&seen)).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected pass-through, got status %d", rec.Code)
			}
			if seen != nil {
				t.Fatalf("expected anonymous request, got principal %v", seen)
			}
		})
	}
}

func TestAuthenticateExpiredTokenStaysAnonymous(t *testing.T) {
	mw, tokens := newMiddlewareFixture(t, 0)
	token, err := tokens.Issue(&shared.Principal{Identifier: "3201011212870001"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *shared.Principal
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(capturePrincipal(&seen)).ServeHTTP(rec, req)

	if seen != nil {
		t.Fatal("expected expired token to leave request anonymous")
	}
}

func TestAuthenticateKeepsExistingPrincipal(t *testing.T) {
	mw, tokens := newMiddlewareFixture(t, 30*time.Minute)
	token, err := tokens.Issue(&shared.Principal{Identifier: "3201011212870001"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	existing := &shared.Principal{Identifier: "pre-installed"}

	var seen *shared.Principal
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), existing))
	rec := httptest.NewRecorder()
	mw.Authenticate(capturePrincipal(&seen)).ServeHTTP(rec, req)

	if seen != existing {
		t.Fatalf("expected pre-installed principal to survive, got %v", seen)
	}
}
