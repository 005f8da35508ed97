package main

import (
	"fmt"
	"log"
	"net/http"

	"rbac/internal/api"
	"rbac/internal/api/handlers"
	"rbac/internal/api/middleware"
	"rbac/internal/engine/accounts"
	"rbac/internal/pkg/logger"
	"rbac/internal/platform/auth"
	"rbac/internal/platform/config"
	"rbac/internal/platform/database"
	"rbac/internal/platform/mailer"
	"rbac/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permRepo := repositories.NewPermissionRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)

	var sender mailer.Sender
	if cfg.Email.Enabled {
		sender = mailer.NewSMTPMailer(cfg.Email.SMTP)
	} else {
		sender = mailer.NoopMailer{}
	}

	accountsSvc := accounts.NewService(db, userRepo, orgRepo, roleRepo, tokenSvc, sender, cfg.Verification.CodeTTL)

	// Handlers
	authHandler := handlers.NewAuthHandler(accountsSvc)
	userHandler := handlers.NewUserHandler(accountsSvc, userRepo, orgRepo, roleRepo)
	orgHandler := handlers.NewOrgHandler(orgRepo, userRepo, roleRepo)
	roleHandler := handlers.NewRoleHandler(roleRepo, orgRepo, permRepo, userRepo)
	permHandler := handlers.NewPermissionHandler(permRepo)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, userRepo, roleRepo)

	deps := &api.Dependencies{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		OrgHandler:        orgHandler,
		RoleHandler:       roleHandler,
		PermissionHandler: permHandler,
		HealthHandler:     healthHandler,
		AuthMiddleware:    authMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
