package access

import "sort"

// Role names held in the role mapping.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Views known to the policy.
const (
	ViewHome             = "home"
	ViewHealthInfo       = "health-info"
	ViewHealthAssessment = "health-assessment"
	ViewFitness          = "fitness"
	ViewAbout            = "about"
	ViewUserManagement   = "user-management"
	ViewSystemSettings   = "system-settings"
	ViewLogin            = "login"
	ViewSignup           = "signup"
)

var permissions = map[string][]string{
	ViewHome:             {RoleUser, RoleAdmin},
	ViewHealthInfo:       {RoleUser, RoleAdmin},
	ViewHealthAssessment: {RoleUser, RoleAdmin},
	ViewFitness:          {RoleUser, RoleAdmin},
	ViewAbout:            {RoleUser, RoleAdmin},
	ViewUserManagement:   {RoleAdmin},
	ViewSystemSettings:   {RoleAdmin},
	ViewLogin:            {},
	ViewSignup:           {},
}

// publicViews are reachable without a session.
var publicViews = []string{ViewHome, ViewLogin, ViewSignup, ViewAbout}

// CanAccess reports whether role may open view. An empty role is an
// anonymous caller. Unknown views are always denied.
func CanAccess(role, view string) bool {
	if role == "" {
		for _, v := range publicViews {
			if v == view {
				return true
			}
		}
		return false
	}
	allowed, ok := permissions[view]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// AccessibleViews lists the views role may open, sorted.
func AccessibleViews(role string) []string {
	if role == "" {
		out := append([]string(nil), publicViews...)
		sort.Strings(out)
		return out
	}
	out := make([]string, 0, len(permissions))
	for view := range permissions {
		if CanAccess(role, view) {
			out = append(out, view)
		}
	}
	sort.Strings(out)
	return out
}

// AdminViews lists the views reserved for administrators, sorted.
func AdminViews() []string {
	out := make([]string, 0, 2)
	for view := range permissions {
		if IsAdminView(view) {
			out = append(out, view)
		}
	}
	sort.Strings(out)
	return out
}

// IsAdminView reports whether only admins may open view.
func IsAdminView(view string) bool {
	allowed := permissions[view]
	return len(allowed) == 1 && allowed[0] == RoleAdmin
}

// KnownView reports whether the policy lists view.
func KnownView(view string) bool {
	_, ok := permissions[view]
	return ok
}

// ValidRole reports whether role is assignable.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// RoleDisplayName is the human readable name of role.
func RoleDisplayName(role string) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAdmin:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// RoleDescription is a one-sentence summary of what role may do.
func RoleDescription(role string) string {
	switch role {
	case RoleUser:
		return "Regular user with access to health features"
	case RoleAdmin:
		return "Administrator with full system access and user management"
	default:
		return "Unknown role"
	}
}
