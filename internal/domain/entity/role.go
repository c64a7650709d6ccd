package entity

// Role ID constants. Roles and accounts are managed by the auth service;
// the ids arrive in access token claims.
const (
	RoleIDAdmin     = 1
	RoleIDDoctor    = 2
	RoleIDReception = 3
	RoleIDNurse     = 4
	RoleIDDisplay   = 5
)

// RoleNames constants
const (
	RoleAdmin     = "admin"
	RoleDoctor    = "doctor"
	RoleReception = "reception"
	RoleNurse     = "nurse"
	RoleDisplay   = "display"
)

// RoleName returns the name for a role id
func RoleName(roleID int) string {
	switch roleID {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDDoctor:
		return RoleDoctor
	case RoleIDReception:
		return RoleReception
	case RoleIDNurse:
		return RoleNurse
	case RoleIDDisplay:
		return RoleDisplay
	default:
		return "unknown"
	}
}
