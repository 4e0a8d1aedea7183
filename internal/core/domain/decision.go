package domain

// Requirement is the minimum access level a protected route demands.
type Requirement int

const (
	// RequireAuthenticated admits any viewer with an active session.
	RequireAuthenticated Requirement = iota
	// RequireStaff admits staff and admin viewers.
	RequireStaff
	// RequireAdmin admits admin viewers only.
	RequireAdmin
)

// NeedsRole reports whether the requirement depends on a resolved role at
// all. Plain authentication does not wait for role resolution.
func (r Requirement) NeedsRole() bool {
	return r == RequireStaff || r == RequireAdmin
}

// Role returns the minimum role the requirement demands.
func (r Requirement) Role() Role {
	switch r {
	case RequireStaff:
		return RoleStaff
	case RequireAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (r Requirement) String() string {
	switch r {
	case RequireStaff:
		return "staff"
	case RequireAdmin:
		return "admin"
	default:
		return "authenticated"
	}
}

// Outcome is the terminal (or pending) result of an access evaluation.
type Outcome int

const (
	// OutcomePending: session or role state is still unresolved. Protected
	// content must never be rendered in this state.
	OutcomePending Outcome = iota
	// OutcomeAllow: render the requested view.
	OutcomeAllow
	// OutcomeRedirectLogin: no active session; send the viewer to login,
	// carrying the originally requested path.
	OutcomeRedirectLogin
	// OutcomeForbidden: authenticated but lacking the required role.
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "pending"
	}
}

// AccessDecision is computed fresh on every protected-route evaluation and
// never persisted. ReturnTo is populated only for OutcomeRedirectLogin.
type AccessDecision struct {
	Outcome  Outcome
	ReturnTo string
}
