package rbac

import (
	"testing"

	"rbac/internal/platform/models"
)

func userWithPermissions(roleName string, perms ...string) *models.User {
	role := &models.Role{ID: "rol_1", Name: roleName}
	for i, name := range perms {
		role.Permissions = append(role.Permissions, models.Permission{ID: string(rune('a' + i)), Name: name})
	}
	return &models.User{ID: "usr_1", Role: role}
}

func TestEffectivePermissions(t *testing.T) {
	user := userWithPermissions("manager", "view_users", "manage_users")

	perms := EffectivePermissions(user)
	if len(perms) != 2 {
		t.Fatalf("Expected 2 permissions, got %d", len(perms))
	}

	if EffectivePermissions(&models.User{}) != nil {
		t.Error("User without a loaded role has no permissions")
	}
	if EffectivePermissions(nil) != nil {
		t.Error("Nil user has no permissions")
	}
}

func TestHasAllPermissions(t *testing.T) {
	user := userWithPermissions("manager", "view_users", "manage_users")

	tests := []struct {
		name     string
		required []string
		want     bool
	}{
		{"all held", []string{"view_users", "manage_users"}, true},
		{"subset held", []string{"view_users"}, true},
		{"one missing", []string{"view_users", "manage_roles"}, false},
		{"none required", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAllPermissions(user, tt.required...); got != tt.want {
				t.Errorf("HasAllPermissions(%v) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	user := userWithPermissions("user", "view_users")

	if !HasAnyPermission(user, "manage_users", "view_users") {
		t.Error("Expected match on view_users")
	}
	if HasAnyPermission(user, "manage_users", "manage_roles") {
		t.Error("Expected no match")
	}
	if HasAnyPermission(user) {
		t.Error("Empty requirement matches nothing")
	}
}

func TestHasRole(t *testing.T) {
	user := userWithPermissions("admin")

	if !HasRole(user, "admin", "owner") {
		t.Error("Expected admin to match")
	}
	if HasRole(user, "user") {
		t.Error("Expected no match for user role")
	}
	if HasRole(&models.User{}, "admin") {
		t.Error("User without loaded role matches nothing")
	}
}
