package rbac

import (
	"errors"
	"strings"
	"time"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AssignedRole links a user to a role. At most one row per (user, role) pair.
type AssignedRole struct {
	ID        int64
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

// RolePermission ties a permission to a role. At most one row per
// (role, permission) pair.
type RolePermission struct {
	ID           int64
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// Precondition failures for assignment mutations. Each names exactly the
// check that failed so callers can tell them apart.
var (
	ErrRoleNotFound       = errors.New("role does not exist")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrPermissionNotFound = errors.New("permission does not exist")

	ErrRoleAlreadyAssigned      = errors.New("role already assigned to user")
	ErrRoleNotAssigned          = errors.New("role not assigned to user")
	ErrPermissionAlreadyGranted = errors.New("permission already granted to role")
	ErrPermissionNotGranted     = errors.New("permission not granted to role")

	ErrRoleNameTaken       = errors.New("role name already exists")
	ErrPermissionNameTaken = errors.New("permission name already exists")
)

const roleAuthorityPrefix = "ROLE_"

// RoleAuthority returns the authority string for a role name. This is the
// single definition of the naming convention; both the resolver and the
// token roles claim go through it.
func RoleAuthority(name string) string {
	return roleAuthorityPrefix + name
}

// IsRoleAuthority reports whether the authority denotes a role rather than a
// bare permission name.
func IsRoleAuthority(authority string) bool {
	return strings.HasPrefix(authority, roleAuthorityPrefix)
}
