package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/klinika-id/klinika/internal/shared"
)

// Service wraps the login flow: credential verification, principal
// construction and token issuance.
type Service struct {
	store    CredentialStore
	builder  *PrincipalBuilder
	tokens   *TokenService
	throttle *LoginThrottle
}

// NewService constructs a new Service. throttle may be nil.
func NewService(store CredentialStore, builder *PrincipalBuilder, tokens *TokenService, throttle *LoginThrottle) *Service {
	return &Service{store: store, builder: builder, tokens: tokens, throttle: throttle}
}

// LoginResult carries the issued token and the subject it was issued for.
type LoginResult struct {
	Token      string `json:"token"`
	NationalID string `json:"national_id"`
}

// Login validates identifier/password credentials and issues a signed
// token. Unknown identifier, bad password and inactive account all collapse
// to shared.ErrInvalidCredentials so callers cannot enumerate identifiers.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if s.throttle.Blocked(ctx, identifier) {
		return nil, shared.ErrTooManyAttempts
	}
	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		s.throttle.RecordFailure(ctx, identifier)
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.throttle.RecordFailure(ctx, identifier)
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.throttle.RecordFailure(ctx, identifier)
		return nil, shared.ErrInvalidCredentials
	}
	principal, err := s.builder.Build(ctx, user.NationalID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, err
	}
	s.throttle.Reset(ctx, identifier)
	return &LoginResult{Token: token, NationalID: principal.Identifier}, nil
}
