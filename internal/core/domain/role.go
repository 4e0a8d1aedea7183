package domain

// Role is the coarse authorization level resolved from the backend's user
// record. The zero value means "not resolved yet" and must never pass a gate.
type Role string

const (
	RoleUnknown Role = ""
	RoleUser    Role = "user"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a backend role string to a Role. Unknown or absent values
// collapse to RoleUser: an explicit successful lookup may only elevate a
// viewer when the backend says "staff" or "admin" verbatim.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Valid reports whether r is one of the three resolved roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleStaff || r == RoleAdmin
}

// Satisfies reports whether a viewer holding r meets the requirement want.
// Admin subsumes staff; no other hierarchy exists.
func (r Role) Satisfies(want Role) bool {
	if !r.Valid() {
		return false
	}
	switch want {
	case RoleUser:
		return true
	case RoleStaff:
		return r == RoleStaff || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	default:
		return false
	}
}
