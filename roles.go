package account

// Role is the account's global role.
type Role string

const (
	// RoleAdministrator can manage other accounts.
	RoleAdministrator Role = "administrator"
	// RoleUser is the default role assigned on registration.
	RoleUser Role = "user"
)

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}
