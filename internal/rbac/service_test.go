package rbac

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klinika-id/klinika/internal/shared"
)

type link struct{ left, right int64 }

// memoryRepo backs Service tests without a database. Mutating operations in
// the tested flows only run after every precondition passed, so WithTx can
// hand out the repo itself without rollback bookkeeping.
type memoryRepo struct {
	users    map[int64]bool
	roles    map[int64]Role
	perms    map[int64]Permission
	assigned map[link]int
	granted  map[link]int
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:    map[int64]bool{},
		roles:    map[int64]Role{},
		perms:    map[int64]Permission{},
		assigned: map[link]int{},
		granted:  map[link]int{},
		nextID:   1000,
	}
}

func (m *memoryRepo) addUser(id int64) { m.users[id] = true }

func (m *memoryRepo) addRole(id int64, name string) {
	m.roles[id] = Role{ID: id, Name: name}
}

func (m *memoryRepo) addPermission(id int64, name string) {
	m.perms[id] = Permission{ID: id, Name: name}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) RoleExists(_ context.Context, roleID int64) (bool, error) {
	_, ok := m.roles[roleID]
	return ok, nil
}

func (m *memoryRepo) UserExists(_ context.Context, userID int64) (bool, error) {
	return m.users[userID], nil
}

func (m *memoryRepo) PermissionExists(_ context.Context, permissionID int64) (bool, error) {
	_, ok := m.perms[permissionID]
	return ok, nil
}

func (m *memoryRepo) RoleAssigned(_ context.Context, userID, roleID int64) (bool, error) {
	return m.assigned[link{userID, roleID}] > 0, nil
}

func (m *memoryRepo) PermissionGranted(_ context.Context, roleID, permissionID int64) (bool, error) {
	return m.granted[link{roleID, permissionID}] > 0, nil
}

func (m *memoryRepo) InsertAssignedRole(_ context.Context, userID, roleID int64) error {
	m.assigned[link{userID, roleID}]++
	return nil
}

func (m *memoryRepo) DeleteAssignedRole(_ context.Context, userID, roleID int64) error {
	delete(m.assigned, link{userID, roleID})
	return nil
}

func (m *memoryRepo) UpdateAssignedRole(_ context.Context, userID, fromRoleID, toRoleID int64) error {
	delete(m.assigned, link{userID, fromRoleID})
	m.assigned[link{userID, toRoleID}]++
	return nil
}

func (m *memoryRepo) InsertRolePermission(_ context.Context, roleID, permissionID int64) error {
	m.granted[link{roleID, permissionID}]++
	return nil
}

func (m *memoryRepo) DeleteRolePermission(_ context.Context, roleID, permissionID int64) error {
	delete(m.granted, link{roleID, permissionID})
	return nil
}

func (m *memoryRepo) UpdateRolePermission(_ context.Context, roleID, fromPermissionID, toPermissionID int64) error {
	delete(m.granted, link{roleID, fromPermissionID})
	m.granted[link{roleID, toPermissionID}]++
	return nil
}

func (m *memoryRepo) DeleteAssignedRolesByRole(_ context.Context, roleID int64) error {
	for l := range m.assigned {
		if l.right == roleID {
			delete(m.assigned, l)
		}
	}
	return nil
}

func (m *memoryRepo) DeleteRolePermissionsByRole(_ context.Context, roleID int64) error {
	for l := range m.granted {
		if l.left == roleID {
			delete(m.granted, l)
		}
	}
	return nil
}

func (m *memoryRepo) DeleteRolePermissionsByPermission(_ context.Context, permissionID int64) error {
	for l := range m.granted {
		if l.right == permissionID {
			delete(m.granted, l)
		}
	}
	return nil
}

func (m *memoryRepo) DeleteRole(_ context.Context, roleID int64) error {
	delete(m.roles, roleID)
	return nil
}

func (m *memoryRepo) DeletePermission(_ context.Context, permissionID int64) error {
	delete(m.perms, permissionID)
	return nil
}

func (m *memoryRepo) ListRoles(_ context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) GetRole(_ context.Context, roleID int64) (Role, error) {
	r, ok := m.roles[roleID]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (m *memoryRepo) CreateRole(_ context.Context, name, description string) (Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return Role{}, ErrRoleNameTaken
		}
	}
	m.nextID++
	r := Role{ID: m.nextID, Name: name, Description: description}
	m.roles[r.ID] = r
	return r, nil
}

func (m *memoryRepo) ListPermissions(_ context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) GetPermission(_ context.Context, permissionID int64) (Permission, error) {
	p, ok := m.perms[permissionID]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) CreatePermission(_ context.Context, name, description string) (Permission, error) {
	for _, p := range m.perms {
		if p.Name == name {
			return Permission{}, ErrPermissionNameTaken
		}
	}
	m.nextID++
	p := Permission{ID: m.nextID, Name: name, Description: description}
	m.perms[p.ID] = p
	return p, nil
}

func (m *memoryRepo) UserRoleNames(_ context.Context, userID int64) ([]string, error) {
	var names []string
	for l := range m.assigned {
		if l.left == userID {
			names = append(names, m.roles[l.right].Name)
		}
	}
	return names, nil
}

func (m *memoryRepo) UserPermissionNames(_ context.Context, userID int64) ([]string, error) {
	seen := map[string]struct{}{}
	for a := range m.assigned {
		if a.left != userID {
			continue
		}
		for g := range m.granted {
			if g.left == a.right {
				seen[m.perms[g.right].Name] = struct{}{}
			}
		}
	}
	var names []string
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}

var _ Repository = (*memoryRepo)(nil)

func newAssignmentFixture() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	repo.addUser(7)
	repo.addRole(1, "Admin")
	repo.addRole(2, "Doctor")
	repo.addPermission(10, "VIEW_USERS")
	repo.addPermission(11, "VIEW_PATIENTS")
	return NewService(repo), repo
}

func TestAssignRoleChecksRoleFirst(t *testing.T) {
	svc, _ := newAssignmentFixture()
	ctx := context.Background()

	// Role check runs before the user check even when both would fail.
	err := svc.AssignRoleToUser(ctx, 99, 888)
	require.ErrorIs(t, err, ErrRoleNotFound)

	err = svc.AssignRoleToUser(ctx, 1, 888)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAssignRoleTwiceKeepsOneLink(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	err := svc.AssignRoleToUser(ctx, 1, 7)
	require.ErrorIs(t, err, ErrRoleAlreadyAssigned)
	require.Equal(t, 1, repo.assigned[link{7, 1}])
}

func TestRemoveRoleNotAssigned(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	err := svc.RemoveRoleFromUser(ctx, 2, 7)
	require.ErrorIs(t, err, ErrRoleNotAssigned)
	// The unrelated link is untouched.
	require.Equal(t, 1, repo.assigned[link{7, 1}])
}

func TestUpdateRoleForUser(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))

	require.NoError(t, svc.UpdateRoleForUser(ctx, 7, 1, 2))
	require.Equal(t, 0, repo.assigned[link{7, 1}])
	require.Equal(t, 1, repo.assigned[link{7, 2}])

	// Current link now points at role 2; updating from role 1 fails.
	err := svc.UpdateRoleForUser(ctx, 7, 1, 2)
	require.ErrorIs(t, err, ErrRoleNotAssigned)

	err = svc.UpdateRoleForUser(ctx, 7, 2, 99)
	require.ErrorIs(t, err, ErrRoleNotFound)

	// Target pair already taken.
	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	err = svc.UpdateRoleForUser(ctx, 7, 1, 2)
	require.ErrorIs(t, err, ErrRoleAlreadyAssigned)
}

func TestAssignPermissionPreconditions(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()

	err := svc.AssignPermissionToRole(ctx, 10, 99)
	require.ErrorIs(t, err, ErrRoleNotFound)

	// Permission 99 does not exist; no link row may appear.
	err = svc.AssignPermissionToRole(ctx, 99, 1)
	require.ErrorIs(t, err, ErrPermissionNotFound)
	require.Empty(t, repo.granted)

	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 1))
	err = svc.AssignPermissionToRole(ctx, 10, 1)
	require.ErrorIs(t, err, ErrPermissionAlreadyGranted)
	require.Equal(t, 1, repo.granted[link{1, 10}])
}

func TestRemovePermissionNotGranted(t *testing.T) {
	svc, _ := newAssignmentFixture()
	err := svc.RemovePermissionFromRole(context.Background(), 10, 1)
	require.ErrorIs(t, err, ErrPermissionNotGranted)
}

func TestUpdatePermissionForRole(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 1))

	require.NoError(t, svc.UpdatePermissionForRole(ctx, 1, 10, 11))
	require.Equal(t, 0, repo.granted[link{1, 10}])
	require.Equal(t, 1, repo.granted[link{1, 11}])

	err := svc.UpdatePermissionForRole(ctx, 1, 11, 99)
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestResolveAuthorities(t *testing.T) {
	svc, _ := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 1))

	authorities, err := svc.ResolveAuthorities(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_Admin", "VIEW_USERS"}, authorities)
}

func TestResolveAuthoritiesEmptyForUserWithoutRoles(t *testing.T) {
	svc, _ := newAssignmentFixture()

	authorities, err := svc.ResolveAuthorities(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, authorities)
}

func TestResolveAuthoritiesDeduplicatesAcrossRoles(t *testing.T) {
	svc, _ := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	require.NoError(t, svc.AssignRoleToUser(ctx, 2, 7))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 11, 1))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 11, 2))

	authorities, err := svc.ResolveAuthorities(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_Admin", "ROLE_Doctor", "VIEW_PATIENTS"}, authorities)
}

func TestResolveAuthoritiesReflectsMutations(t *testing.T) {
	svc, _ := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 2, 7))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 11, 2))
	authorities, err := svc.ResolveAuthorities(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_Doctor", "VIEW_PATIENTS"}, authorities)

	require.NoError(t, svc.RemovePermissionFromRole(ctx, 11, 2))
	authorities, err = svc.ResolveAuthorities(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_Doctor"}, authorities)
}

func TestDeleteRoleCascades(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignRoleToUser(ctx, 1, 7))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 1))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 11, 1))

	require.NoError(t, svc.DeleteRole(ctx, 1))
	require.Empty(t, repo.assigned)
	require.Empty(t, repo.granted)
	_, err := svc.GetRole(ctx, 1)
	require.ErrorIs(t, err, ErrRoleNotFound)

	// Permissions themselves survive the role deletion.
	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 2)
}

func TestDeletePermissionCascades(t *testing.T) {
	svc, repo := newAssignmentFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 1))
	require.NoError(t, svc.AssignPermissionToRole(ctx, 10, 2))

	require.NoError(t, svc.DeletePermission(ctx, 10))
	require.Empty(t, repo.granted)
	_, err := svc.GetPermission(ctx, 10)
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestCreateRoleValidation(t *testing.T) {
	svc, _ := newAssignmentFixture()
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, "   ", "blank")
	require.ErrorIs(t, err, errInvalidName)

	role, err := svc.CreateRole(ctx, "  Apoteker  ", "pharmacy desk")
	require.NoError(t, err)
	require.Equal(t, "Apoteker", role.Name)

	_, err = svc.CreateRole(ctx, "Apoteker", "duplicate")
	require.ErrorIs(t, err, ErrRoleNameTaken)
}
