package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/klinika-id/klinika/internal/rbac"
	"github.com/klinika-id/klinika/internal/shared"
)

// MinSecretLen is the minimum signing-secret length in bytes. HMAC-SHA256
// keys shorter than the hash size weaken the signature.
const MinSecretLen = 32

// TokenClaims is the JWT payload: subject identifier, the ROLE_* snapshot,
// issued-at and expiry. The roles claim is informational; access decisions
// re-resolve authorities from storage on each request.
type TokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates stateless HS256 bearer tokens. The
// secret is fixed at construction and never mutated afterwards, so the
// service is safe for concurrent use without locking.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService. A secret shorter than
// MinSecretLen is a configuration fault and rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	return NewTokenServiceWithClock(secret, ttl, time.Now)
}

// NewTokenServiceWithClock is NewTokenService with an injectable clock,
// used by tests to pin issuance and validation instants.
func NewTokenServiceWithClock(secret string, ttl time.Duration, now func() time.Time) (*TokenService, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue signs a token for the principal: sub = identifier, roles = the
// ROLE_* subset of the authority snapshot, iat = now, exp = now + TTL. A
// zero or negative TTL produces an already-expired token.
func (s *TokenService) Issue(principal *shared.Principal) (string, error) {
	if principal == nil || principal.Identifier == "" {
		return "", errors.New("principal identifier is required")
	}
	now := s.now().UTC()
	claims := TokenClaims{
		Roles: roleSnapshot(principal.Authorities),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Identifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate reports whether the token is well formed, correctly signed, not
// expired, and issued for the expected subject. It fails closed: any parse
// or verification problem yields false, never an error.
func (s *TokenService) Validate(token, expectedSubject string) bool {
	claims, err := s.parse(token, true)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

// ExtractSubject returns the subject of a correctly signed token without
// validating expiry. Used to look up the principal before the full check.
func (s *TokenService) ExtractSubject(token string) (string, bool) {
	claims, err := s.parse(token, false)
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (s *TokenService) parse(token string, validateClaims bool) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// roleSnapshot filters the authority set down to its ROLE_* entries. The
// slice is always non-nil so a user without roles gets an empty claim, not
// a missing one.
func roleSnapshot(authorities []string) []string {
	roles := make([]string, 0, len(authorities))
	for _, authority := range authorities {
		if rbac.IsRoleAuthority(authority) {
			roles = append(roles, authority)
		}
	}
	return roles
}
