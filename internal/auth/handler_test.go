package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/klinika-id/klinika/testing"
)

func newLoginRouter(t *testing.T) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia-kuat"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &stubStore{users: map[string]*User{
		"3201011212870001": {ID: 7, NationalID: "3201011212870001", PasswordHash: string(hash), IsActive: true},
	}}
	resolver := &stubResolver{authorities: map[int64][]string{7: {"ROLE_Doctor"}}}
	tokens, err := NewTokenService(testSecret, 30*time.Minute)
	require.NoError(t, err)
	svc := NewService(store, NewPrincipalBuilder(store, resolver), tokens, nil)
	handler := NewHandler(slog.Default(), svc, nil)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func TestHandleLoginSuccess(t *testing.T) {
	router := newLoginRouter(t)
	body := `{"national_id":"3201011212870001","password":"rahasia-kuat"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "3201011212870001", result.NationalID)
	require.NotEmpty(t, result.Token)
}

func TestHandleLoginGenericFailure(t *testing.T) {
	router := newLoginRouter(t)
	bodies := map[string]string{
		"unknown identifier": `{"national_id":"0000000000000000","password":"rahasia-kuat"}`,
		"wrong password":     `{"national_id":"3201011212870001","password":"salah-total"}`,
		"short password":     `{"national_id":"3201011212870001","password":"x"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Contains(t, rec.Body.String(), "authentication failed")
			require.NotContains(t, rec.Body.String(), "identifier")
		})
	}
}

func TestHandleLoginBadBody(t *testing.T) {
	router := newLoginRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
