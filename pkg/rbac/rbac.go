package rbac

// Permissions, one per bot command.
const (
	// guild-wide settings
	PermissionConfigureAccount = "mail:configure"
	PermissionViewAccount      = "mail:status"

	PermissionSendMail  = "mail:send"
	PermissionDraftMail = "mail:draft"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

var rolePermissions = map[string][]string{
	RoleMember: {
		PermissionSendMail,
		PermissionDraftMail,
	},
	RoleAdmin: {
		PermissionSendMail,
		PermissionDraftMail,
		PermissionConfigureAccount,
		PermissionViewAccount,
	},
}

// RoleFor maps the platform's administrator flag to a role.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// HasPermission reports whether role grants permission. Unknown roles grant nothing.
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission is HasPermission returning an error.
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{Role: role, Permission: permission}
	}
	return nil
}

// AdminOnly reports whether only admins hold permission.
func AdminOnly(permission string) bool {
	return !HasPermission(RoleMember, permission) && HasPermission(RoleAdmin, permission)
}

// PermissionDeniedError is returned by CheckPermission.
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions: " + e.Role + " lacks " + e.Permission
}
