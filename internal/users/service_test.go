package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/klinika-id/klinika/internal/shared"
)

type memoryUserRepo struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[int64]User{}, hashes: map[int64]string{}}
}

func (m *memoryUserRepo) ListUsers(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUserRepo) GetUser(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryUserRepo) CreateUser(_ context.Context, nationalID, name, passwordHash string) (User, error) {
	for _, u := range m.users {
		if u.NationalID == nationalID {
			return User{}, ErrNationalIDTaken
		}
	}
	m.nextID++
	u := User{ID: m.nextID, NationalID: nationalID, Name: name, IsActive: true}
	m.users[u.ID] = u
	m.hashes[u.ID] = passwordHash
	return u, nil
}

func (m *memoryUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), "3201011212870001", "dr. Sari", "rahasia-kuat")
	require.NoError(t, err)
	require.True(t, user.IsActive)

	hash := repo.hashes[user.ID]
	require.NotEqual(t, "rahasia-kuat", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("rahasia-kuat")))
}

func TestCreateUserDuplicateNationalID(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "3201011212870001", "dr. Sari", "rahasia-kuat")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "3201011212870001", "dr. Sari Kedua", "rahasia-lain")
	require.ErrorIs(t, err, ErrNationalIDTaken)
}

func TestSetActive(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "3201011212870001", "dr. Sari", "rahasia-kuat")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, user.ID, false))
	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	err = svc.SetActive(ctx, 999, false)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
