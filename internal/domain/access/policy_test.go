package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanAccess_Anonymous(t *testing.T) {
	require.Equal(t, []string{"about", "home", "login", "signup"}, AccessibleViews(""))
	require.True(t, CanAccess("", ViewHome))
	require.False(t, CanAccess("", ViewFitness))
	require.False(t, CanAccess("", ViewUserManagement))
}

func TestCanAccess_Roles(t *testing.T) {
	require.True(t, CanAccess(RoleUser, ViewHealthAssessment))
	require.False(t, CanAccess(RoleUser, ViewUserManagement))
	require.False(t, CanAccess(RoleUser, ViewSystemSettings))
	require.True(t, CanAccess(RoleAdmin, ViewUserManagement))
	require.True(t, CanAccess(RoleAdmin, ViewFitness))

	// login and signup list no role, so signed-in callers are sent elsewhere.
	require.False(t, CanAccess(RoleUser, ViewLogin))
	require.False(t, CanAccess(RoleAdmin, ViewSignup))
}

func TestCanAccess_UnknownViewDenied(t *testing.T) {
	require.False(t, CanAccess(RoleAdmin, "billing"))
	require.False(t, CanAccess("", "billing"))
	require.False(t, CanAccess("guest", ViewHome))
}

func TestAccessibleViews(t *testing.T) {
	require.Equal(t, []string{"about", "fitness", "health-assessment", "health-info", "home"}, AccessibleViews(RoleUser))
	require.Equal(t, []string{"about", "fitness", "health-assessment", "health-info", "home", "system-settings", "user-management"}, AccessibleViews(RoleAdmin))
	require.Equal(t, []string{"system-settings", "user-management"}, AdminViews())
	require.True(t, IsAdminView(ViewSystemSettings))
	require.False(t, IsAdminView(ViewLogin))
}

func TestRoleLabels(t *testing.T) {
	require.Equal(t, "Administrator", RoleDisplayName(RoleAdmin))
	require.Equal(t, "User", RoleDisplayName(RoleUser))
	require.Equal(t, "Unknown", RoleDisplayName("root"))
	require.Equal(t, "Regular user with access to health features", RoleDescription(RoleUser))
	require.Equal(t, "Unknown role", RoleDescription(""))
}
