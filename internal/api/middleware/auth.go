package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "rbac/internal/api/context"
	"rbac/internal/pkg/errors"
	"rbac/internal/platform/auth"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

// AuthMiddleware enforces the fixed gate order: token validity, then email
// verification. Permission checks (rbac.go) only ever run behind this, so
// an unauthenticated or unverified caller never reaches them.
type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	users    *repositories.UserRepository
	roles    *repositories.RoleRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, users *repositories.UserRepository, roles *repositories.RoleRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, users: users, roles: roles}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		email, err := m.tokenSvc.VerifyAccessToken(parts[1])
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Could not validate credentials", nil)
			return
		}

		user, err := m.users.GetByEmail(email)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Could not validate credentials", nil)
			return
		}

		if !user.EmailVerified {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Email not verified. Please verify your email first.", nil)
			return
		}

		role, err := m.roles.GetByID(user.RoleID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		user.Role = role

		ctx := context.WithValue(r.Context(), apiContext.User, user)
		next(w, r.WithContext(ctx))
	}
}

// CurrentUser returns the authenticated user placed in the context by
// AuthMiddleware.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(apiContext.User).(*models.User)
	return user
}
