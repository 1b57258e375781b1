package rbac

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/klinika-id/klinika/internal/shared"
)

var errInvalidName = errors.New("name is required")

func mapNotFound(err, sentinel error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return sentinel
	}
	return err
}

// Service orchestrates RBAC operations: role/permission management, the
// assignment mutations over the join entities, and authority resolution.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveAuthorities computes the effective authority set for a user:
// ROLE_<name> for every assigned role plus the distinct permission names
// reachable through any assigned role. A user with no roles yields an empty
// set; a role with no permissions contributes only its ROLE_ entry.
func (s *Service) ResolveAuthorities(ctx context.Context, userID int64) ([]string, error) {
	roleNames, err := s.repo.UserRoleNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	permNames, err := s.repo.UserPermissionNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(roleNames)+len(permNames))
	for _, name := range roleNames {
		set[RoleAuthority(name)] = struct{}{}
	}
	for _, name := range permNames {
		set[name] = struct{}{}
	}
	authorities := make([]string, 0, len(set))
	for authority := range set {
		authorities = append(authorities, authority)
	}
	sort.Strings(authorities)
	return authorities, nil
}

// AssignRoleToUser creates an AssignedRole link. The checks run in order so
// the error names the first failed precondition: role exists, user exists,
// link not already present.
func (s *Service) AssignRoleToUser(ctx context.Context, roleID, userID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		assigned, err := tx.RoleAssigned(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if assigned {
			return ErrRoleAlreadyAssigned
		}
		return tx.InsertAssignedRole(ctx, userID, roleID)
	})
}

// RemoveRoleFromUser deletes an existing AssignedRole link.
func (s *Service) RemoveRoleFromUser(ctx context.Context, roleID, userID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		assigned, err := tx.RoleAssigned(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if !assigned {
			return ErrRoleNotAssigned
		}
		return tx.DeleteAssignedRole(ctx, userID, roleID)
	})
}

// UpdateRoleForUser re-points an existing assignment at a new role without
// deleting and recreating the link. Fails under the same conditions as
// RemoveRoleFromUser, and additionally requires the new role to exist and
// the (user, new role) pair to be free.
func (s *Service) UpdateRoleForUser(ctx context.Context, userID, currentRoleID, newRoleID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, currentRoleID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		assigned, err := tx.RoleAssigned(ctx, userID, currentRoleID)
		if err != nil {
			return err
		}
		if !assigned {
			return ErrRoleNotAssigned
		}
		if err := requireRole(ctx, tx, newRoleID); err != nil {
			return err
		}
		taken, err := tx.RoleAssigned(ctx, userID, newRoleID)
		if err != nil {
			return err
		}
		if taken {
			return ErrRoleAlreadyAssigned
		}
		return tx.UpdateAssignedRole(ctx, userID, currentRoleID, newRoleID)
	})
}

// AssignPermissionToRole creates a RolePermission link. Check order: role
// exists, permission exists, link not already present.
func (s *Service) AssignPermissionToRole(ctx context.Context, permissionID, roleID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := requirePermission(ctx, tx, permissionID); err != nil {
			return err
		}
		granted, err := tx.PermissionGranted(ctx, roleID, permissionID)
		if err != nil {
			return err
		}
		if granted {
			return ErrPermissionAlreadyGranted
		}
		return tx.InsertRolePermission(ctx, roleID, permissionID)
	})
}

// RemovePermissionFromRole deletes an existing RolePermission link.
func (s *Service) RemovePermissionFromRole(ctx context.Context, permissionID, roleID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := requirePermission(ctx, tx, permissionID); err != nil {
			return err
		}
		granted, err := tx.PermissionGranted(ctx, roleID, permissionID)
		if err != nil {
			return err
		}
		if !granted {
			return ErrPermissionNotGranted
		}
		return tx.DeleteRolePermission(ctx, roleID, permissionID)
	})
}

// UpdatePermissionForRole re-points an existing RolePermission link at a new
// permission.
func (s *Service) UpdatePermissionForRole(ctx context.Context, roleID, currentPermissionID, newPermissionID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := requirePermission(ctx, tx, currentPermissionID); err != nil {
			return err
		}
		granted, err := tx.PermissionGranted(ctx, roleID, currentPermissionID)
		if err != nil {
			return err
		}
		if !granted {
			return ErrPermissionNotGranted
		}
		if err := requirePermission(ctx, tx, newPermissionID); err != nil {
			return err
		}
		taken, err := tx.PermissionGranted(ctx, roleID, newPermissionID)
		if err != nil {
			return err
		}
		if taken {
			return ErrPermissionAlreadyGranted
		}
		return tx.UpdateRolePermission(ctx, roleID, currentPermissionID, newPermissionID)
	})
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, roleID int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, mapNotFound(err, ErrRoleNotFound)
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errInvalidName
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// DeleteRole removes a role together with its AssignedRole and
// RolePermission links. The cascade is explicit so the ownership rule holds
// in any storage backend, not only ones with FK cascades.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := tx.DeleteRolePermissionsByRole(ctx, roleID); err != nil {
			return err
		}
		if err := tx.DeleteAssignedRolesByRole(ctx, roleID); err != nil {
			return err
		}
		return tx.DeleteRole(ctx, roleID)
	})
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches a permission by ID.
func (s *Service) GetPermission(ctx context.Context, permissionID int64) (Permission, error) {
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return Permission{}, mapNotFound(err, ErrPermissionNotFound)
	}
	return perm, nil
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errInvalidName
	}
	return s.repo.CreatePermission(ctx, name, strings.TrimSpace(description))
}

// DeletePermission removes a permission and its RolePermission links.
func (s *Service) DeletePermission(ctx context.Context, permissionID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requirePermission(ctx, tx, permissionID); err != nil {
			return err
		}
		if err := tx.DeleteRolePermissionsByPermission(ctx, permissionID); err != nil {
			return err
		}
		return tx.DeletePermission(ctx, permissionID)
	})
}

func requireRole(ctx context.Context, tx TxRepository, roleID int64) error {
	found, err := tx.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !found {
		return ErrRoleNotFound
	}
	return nil
}

func requireUser(ctx context.Context, tx TxRepository, userID int64) error {
	found, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

func requirePermission(ctx context.Context, tx TxRepository, permissionID int64) error {
	found, err := tx.PermissionExists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !found {
		return ErrPermissionNotFound
	}
	return nil
}
