package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "rbac/internal/api/context"
	"rbac/internal/api/handlers"
	"rbac/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	OrgHandler        *handlers.OrgHandler
	RoleHandler       *handlers.RoleHandler
	PermissionHandler *handlers.PermissionHandler
	HealthHandler     *handlers.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/auth/verify-email", wrap(deps.AuthHandler.VerifyEmail))
	router.POST("/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/auth/refresh-token", wrap(deps.AuthHandler.RefreshToken))
	router.POST("/auth/forgot-password", wrap(deps.AuthHandler.ForgotPassword))
	router.POST("/auth/verify-reset-code", wrap(deps.AuthHandler.VerifyResetCode))
	router.POST("/auth/reset-password", wrap(deps.AuthHandler.ResetPassword))

	authMid := deps.AuthMiddleware

	// Self profile; authentication only, no permission gate
	router.GET("/me", chain(deps.UserHandler.Me, authMid.Handle))

	// User management
	router.POST("/users",
		chain(deps.UserHandler.Create, authMid.Handle, middleware.RequirePermissions("manage_users")))
	router.GET("/users",
		chain(deps.UserHandler.List, authMid.Handle, middleware.RequirePermissions("view_users")))
	router.GET("/users/:id",
		chain(deps.UserHandler.Get, authMid.Handle, middleware.RequirePermissions("view_users")))
	router.PUT("/users/:id",
		chain(deps.UserHandler.Update, authMid.Handle, middleware.RequirePermissions("manage_users")))
	router.DELETE("/users/:id",
		chain(deps.UserHandler.Delete, authMid.Handle, middleware.RequirePermissions("manage_users")))

	// Organization management
	router.POST("/organizations",
		chain(deps.OrgHandler.Create, authMid.Handle, middleware.RequirePermissions("manage_organizations")))
	router.GET("/organizations",
		chain(deps.OrgHandler.List, authMid.Handle, middleware.RequirePermissions("view_organizations")))
	router.GET("/organizations/:id",
		chain(deps.OrgHandler.Get, authMid.Handle, middleware.RequirePermissions("view_organizations")))
	router.PUT("/organizations/:id",
		chain(deps.OrgHandler.Update, authMid.Handle, middleware.RequirePermissions("manage_organizations")))
	router.DELETE("/organizations/:id",
		chain(deps.OrgHandler.Delete, authMid.Handle, middleware.RequirePermissions("manage_organizations")))
	router.GET("/organizations/:id/users",
		chain(deps.OrgHandler.ListUsers, authMid.Handle, middleware.RequirePermissions("view_users")))
	router.GET("/organizations/:id/roles",
		chain(deps.OrgHandler.ListRoles, authMid.Handle, middleware.RequirePermissions("view_roles")))

	// Role management
	router.POST("/roles",
		chain(deps.RoleHandler.Create, authMid.Handle, middleware.RequirePermissions("manage_roles")))
	router.GET("/roles",
		chain(deps.RoleHandler.List, authMid.Handle, middleware.RequirePermissions("view_roles")))
	router.GET("/roles/:id",
		chain(deps.RoleHandler.Get, authMid.Handle, middleware.RequirePermissions("view_roles")))
	router.PUT("/roles/:id",
		chain(deps.RoleHandler.Update, authMid.Handle, middleware.RequirePermissions("manage_roles")))
	router.DELETE("/roles/:id",
		chain(deps.RoleHandler.Delete, authMid.Handle, middleware.RequirePermissions("manage_roles")))
	router.POST("/roles/:id/permissions/:permission_id",
		chain(deps.RoleHandler.AssignPermission, authMid.Handle, middleware.RequirePermissions("manage_roles")))
	router.DELETE("/roles/:id/permissions/:permission_id",
		chain(deps.RoleHandler.RemovePermission, authMid.Handle, middleware.RequirePermissions("manage_roles")))

	// Permission management
	router.POST("/permissions",
		chain(deps.PermissionHandler.Create, authMid.Handle, middleware.RequirePermissions("manage_permissions")))
	router.GET("/permissions",
		chain(deps.PermissionHandler.List, authMid.Handle, middleware.RequirePermissions("view_permissions")))
	router.GET("/permissions/:id",
		chain(deps.PermissionHandler.Get, authMid.Handle, middleware.RequirePermissions("view_permissions")))
	router.PUT("/permissions/:id",
		chain(deps.PermissionHandler.Update, authMid.Handle, middleware.RequirePermissions("manage_permissions")))
	router.DELETE("/permissions/:id",
		chain(deps.PermissionHandler.Delete, authMid.Handle, middleware.RequirePermissions("manage_permissions")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
