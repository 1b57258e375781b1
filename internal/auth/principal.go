package auth

import (
	"context"

	"github.com/klinika-id/klinika/internal/shared"
)

// CredentialStore is the contract this core depends on for user lookups.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// AuthorityResolver computes the effective authority set for a user.
// Satisfied by rbac.Service.
type AuthorityResolver interface {
	ResolveAuthorities(ctx context.Context, userID int64) ([]string, error)
}

// PrincipalBuilder combines the credential store and the authority resolver
// into an authenticatable identity object.
type PrincipalBuilder struct {
	store    CredentialStore
	resolver AuthorityResolver
}

// NewPrincipalBuilder constructs a PrincipalBuilder.
func NewPrincipalBuilder(store CredentialStore, resolver AuthorityResolver) *PrincipalBuilder {
	return &PrincipalBuilder{store: store, resolver: resolver}
}

// Build looks up the user by identifier and resolves the authority set at
// build time. The set is a snapshot: a later grant only takes effect on the
// next build. Returns shared.ErrNotFound when the identifier is unknown.
func (b *PrincipalBuilder) Build(ctx context.Context, identifier string) (*shared.Principal, error) {
	user, err := b.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	authorities, err := b.resolver.ResolveAuthorities(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &shared.Principal{
		Identifier:   user.NationalID,
		PasswordHash: user.PasswordHash,
		Authorities:  authorities,
	}, nil
}
