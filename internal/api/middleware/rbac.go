package middleware

import (
	"net/http"

	"rbac/internal/engine/rbac"
	"rbac/internal/pkg/errors"
)

// The 403 message names only what was requested, never the caller's held
// permissions or the full set that would have satisfied the check.

// RequirePermissions passes only callers whose role grants every listed
// permission. Must be chained behind AuthMiddleware.
func RequirePermissions(required ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil || !rbac.HasAllPermissions(user, required...) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}
			next(w, r)
		}
	}
}

// RequireAnyPermission passes callers whose role grants at least one of
// the listed permissions.
func RequireAnyPermission(required ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil || !rbac.HasAnyPermission(user, required...) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}
			next(w, r)
		}
	}
}

// RequireRole passes callers whose role name is one of the listed names.
func RequireRole(allowed ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil || !rbac.HasRole(user, allowed...) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}
			next(w, r)
		}
	}
}
