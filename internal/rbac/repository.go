package rbac

import "context"

// TxRepository groups the single-row operations used inside an assignment
// transaction. Existence checks and the following insert/update/delete run
// against the same transaction so concurrent mutations cannot interleave.
type TxRepository interface {
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	PermissionExists(ctx context.Context, permissionID int64) (bool, error)

	RoleAssigned(ctx context.Context, userID, roleID int64) (bool, error)
	PermissionGranted(ctx context.Context, roleID, permissionID int64) (bool, error)

	InsertAssignedRole(ctx context.Context, userID, roleID int64) error
	DeleteAssignedRole(ctx context.Context, userID, roleID int64) error
	UpdateAssignedRole(ctx context.Context, userID, fromRoleID, toRoleID int64) error

	InsertRolePermission(ctx context.Context, roleID, permissionID int64) error
	DeleteRolePermission(ctx context.Context, roleID, permissionID int64) error
	UpdateRolePermission(ctx context.Context, roleID, fromPermissionID, toPermissionID int64) error

	DeleteAssignedRolesByRole(ctx context.Context, roleID int64) error
	DeleteRolePermissionsByRole(ctx context.Context, roleID int64) error
	DeleteRolePermissionsByPermission(ctx context.Context, permissionID int64) error

	DeleteRole(ctx context.Context, roleID int64) error
	DeletePermission(ctx context.Context, permissionID int64) error
}

// Repository defines persistence operations for the RBAC graph.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, roleID int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, permissionID int64) (Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)

	// UserRoleNames returns the names of all roles assigned to the user.
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
	// UserPermissionNames returns the distinct permission names reachable
	// through any of the user's assigned roles.
	UserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}
