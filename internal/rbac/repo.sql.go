package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klinika-id/klinika/internal/shared"
)

// Ensure implementation
var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgQueries)(nil)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQueries struct {
	db dbtx
}

type pgRepository struct {
	pool *pgxpool.Pool
	pgQueries
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool, pgQueries: pgQueries{db: pool}}
}

// WithTx runs fn against a single transaction. The unique indexes on
// assigned_roles and role_permissions are the backstop when two transactions
// race past the existence checks.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, &pgQueries{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (q *pgQueries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (q *pgQueries) GetRole(ctx context.Context, roleID int64) (Role, error) {
	var role Role
	err := q.db.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, roleID).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func (q *pgQueries) CreateRole(ctx context.Context, name, description string) (Role, error) {
	var role Role
	err := q.db.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id, name, description, created_at, updated_at`,
		name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, ErrRoleNameTaken
		}
		return Role{}, err
	}
	return role, nil
}

func (q *pgQueries) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (q *pgQueries) GetPermission(ctx context.Context, permissionID int64) (Permission, error) {
	var perm Permission
	err := q.db.QueryRow(ctx, `SELECT id, name, description FROM permissions WHERE id = $1`, permissionID).
		Scan(&perm.ID, &perm.Name, &perm.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

func (q *pgQueries) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	var perm Permission
	err := q.db.QueryRow(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2) RETURNING id, name, description`,
		name, description).
		Scan(&perm.ID, &perm.Name, &perm.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return Permission{}, ErrPermissionNameTaken
		}
		return Permission{}, err
	}
	return perm, nil
}

func (q *pgQueries) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.Query(ctx,
		`SELECT r.name FROM roles r JOIN assigned_roles ar ON ar.role_id = r.id WHERE ar.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (q *pgQueries) UserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.Query(ctx,
		`SELECT DISTINCT p.name
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN assigned_roles ar ON ar.role_id = rp.role_id
		 WHERE ar.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *pgQueries) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID)
}

func (q *pgQueries) UserExists(ctx context.Context, userID int64) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
}

func (q *pgQueries) PermissionExists(ctx context.Context, permissionID int64) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM permissions WHERE id = $1)`, permissionID)
}

func (q *pgQueries) RoleAssigned(ctx context.Context, userID, roleID int64) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM assigned_roles WHERE user_id = $1 AND role_id = $2)`, userID, roleID)
}

func (q *pgQueries) PermissionGranted(ctx context.Context, roleID, permissionID int64) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_id = $2)`, roleID, permissionID)
}

func (q *pgQueries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := q.db.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (q *pgQueries) InsertAssignedRole(ctx context.Context, userID, roleID int64) error {
	_, err := q.db.Exec(ctx, `INSERT INTO assigned_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	if isUniqueViolation(err) {
		return ErrRoleAlreadyAssigned
	}
	return err
}

func (q *pgQueries) DeleteAssignedRole(ctx context.Context, userID, roleID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM assigned_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func (q *pgQueries) UpdateAssignedRole(ctx context.Context, userID, fromRoleID, toRoleID int64) error {
	_, err := q.db.Exec(ctx,
		`UPDATE assigned_roles SET role_id = $3 WHERE user_id = $1 AND role_id = $2`, userID, fromRoleID, toRoleID)
	if isUniqueViolation(err) {
		return ErrRoleAlreadyAssigned
	}
	return err
}

func (q *pgQueries) InsertRolePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := q.db.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permissionID)
	if isUniqueViolation(err) {
		return ErrPermissionAlreadyGranted
	}
	return err
}

func (q *pgQueries) DeleteRolePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

func (q *pgQueries) UpdateRolePermission(ctx context.Context, roleID, fromPermissionID, toPermissionID int64) error {
	_, err := q.db.Exec(ctx,
		`UPDATE role_permissions SET permission_id = $3 WHERE role_id = $1 AND permission_id = $2`,
		roleID, fromPermissionID, toPermissionID)
	if isUniqueViolation(err) {
		return ErrPermissionAlreadyGranted
	}
	return err
}

func (q *pgQueries) DeleteAssignedRolesByRole(ctx context.Context, roleID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM assigned_roles WHERE role_id = $1`, roleID)
	return err
}

func (q *pgQueries) DeleteRolePermissionsByRole(ctx context.Context, roleID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID)
	return err
}

func (q *pgQueries) DeleteRolePermissionsByPermission(ctx context.Context, permissionID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, permissionID)
	return err
}

func (q *pgQueries) DeleteRole(ctx context.Context, roleID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	return err
}

func (q *pgQueries) DeletePermission(ctx context.Context, permissionID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, permissionID)
	return err
}
