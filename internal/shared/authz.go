package shared

// Core platform authorities.
const (
	PermViewPatients = "VIEW_PATIENTS"

	PermViewUsers   = "VIEW_USERS"
	PermManageUsers = "MANAGE_USERS"

	PermViewRoles   = "VIEW_ROLES"
	PermManageRoles = "MANAGE_ROLES"
)

// CoreAuthorities lists all permissions related to the core platform.
func CoreAuthorities() []string {
	return []string{
		PermViewPatients,
		PermViewUsers,
		PermManageUsers,
		PermViewRoles,
		PermManageRoles,
	}
}
