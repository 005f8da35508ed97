// Package rbac resolves a user's effective permissions from their role and
// answers allow/deny questions for permission and role checks.
package rbac

import "rbac/internal/platform/models"

// EffectivePermissions returns the permission names attached to the user's
// role. The role must already be loaded on the user.
func EffectivePermissions(user *models.User) []string {
	if user == nil || user.Role == nil {
		return nil
	}
	names := make([]string, 0, len(user.Role.Permissions))
	for _, p := range user.Role.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// HasAllPermissions reports whether the user's role grants every required
// permission.
func HasAllPermissions(user *models.User, required ...string) bool {
	held := permissionSet(user)
	for _, name := range required {
		if !held[name] {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether the user's role grants at least one of
// the required permissions.
func HasAnyPermission(user *models.User, required ...string) bool {
	held := permissionSet(user)
	for _, name := range required {
		if held[name] {
			return true
		}
	}
	return false
}

// HasRole reports whether the user's role name is one of the allowed names.
func HasRole(user *models.User, allowed ...string) bool {
	if user == nil || user.Role == nil {
		return false
	}
	for _, name := range allowed {
		if user.Role.Name == name {
			return true
		}
	}
	return false
}

func permissionSet(user *models.User) map[string]bool {
	set := map[string]bool{}
	if user == nil || user.Role == nil {
		return set
	}
	for _, p := range user.Role.Permissions {
		set[p.Name] = true
	}
	return set
}
