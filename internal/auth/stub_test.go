package auth

import (
	"context"

	"github.com/klinika-id/klinika/internal/shared"
)

type stubStore struct {
	users map[string]*User
}

func (s *stubStore) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	user, ok := s.users[identifier]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

type stubResolver struct {
	authorities map[int64][]string
	err         error
}

func (s *stubResolver) ResolveAuthorities(_ context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.authorities[userID], nil
}
