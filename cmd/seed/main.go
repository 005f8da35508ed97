package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rbac/internal/platform/auth"
	"rbac/internal/platform/config"
	"rbac/internal/platform/database"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

// Seeds the baseline permission catalog, a sample organization with the
// three stock roles, and a verified admin account. Safe to re-run; existing
// rows are reused.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	orgName := flag.String("org", "Sample Organization", "Organization to seed")
	adminEmail := flag.String("admin-email", "admin@example.com", "Admin account email")
	adminPassword := flag.String("admin-password", "admin123", "Admin account password")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permRepo := repositories.NewPermissionRepository(db)

	permissions := []models.Permission{
		{Name: "view_users", Description: "View users in the organization"},
		{Name: "manage_users", Description: "Create, update, and delete users"},
		{Name: "view_roles", Description: "View roles and their permissions"},
		{Name: "manage_roles", Description: "Create, update, and delete roles"},
		{Name: "view_permissions", Description: "View the permission catalog"},
		{Name: "manage_permissions", Description: "Create, update, and delete permissions"},
		{Name: "view_organizations", Description: "View organizations"},
		{Name: "manage_organizations", Description: "Create, update, and delete organizations"},
	}

	byName := make(map[string]string, len(permissions))
	for _, p := range permissions {
		existing, err := permRepo.GetByName(p.Name)
		if err != nil {
			log.Fatalf("Failed to look up permission %s: %v", p.Name, err)
		}
		if existing != nil {
			byName[p.Name] = existing.ID
			continue
		}
		perm := &models.Permission{ID: "prm_" + uuid.NewString(), Name: p.Name, Description: p.Description}
		if err := permRepo.Create(perm); err != nil {
			log.Fatalf("Failed to create permission %s: %v", p.Name, err)
		}
		byName[p.Name] = perm.ID
		log.Printf("Created permission: %s", p.Name)
	}

	org, err := orgRepo.GetByName(*orgName)
	if err != nil {
		log.Fatalf("Failed to look up organization: %v", err)
	}
	if org == nil {
		org = &models.Organization{ID: "org_" + uuid.NewString(), Name: *orgName, CreatedAt: time.Now().Unix()}
		if err := orgRepo.Create(org); err != nil {
			log.Fatalf("Failed to create organization: %v", err)
		}
		log.Printf("Created organization: %s", org.Name)
	}

	// admin gets everything, manager everything except organization
	// management, user read-only access.
	grants := map[string][]string{
		"admin": {
			"view_users", "manage_users",
			"view_roles", "manage_roles",
			"view_permissions", "manage_permissions",
			"view_organizations", "manage_organizations",
		},
		"manager": {
			"view_users", "manage_users",
			"view_roles", "manage_roles",
			"view_permissions", "manage_permissions",
			"view_organizations",
		},
		"user": {
			"view_users", "view_roles", "view_permissions", "view_organizations",
		},
	}

	roleIDs := make(map[string]string, len(grants))
	for _, name := range []string{"admin", "manager", "user"} {
		role, err := roleRepo.GetByName(name, org.ID)
		if err != nil {
			log.Fatalf("Failed to look up role %s: %v", name, err)
		}
		if role == nil {
			role = &models.Role{
				ID:             "rol_" + uuid.NewString(),
				Name:           name,
				OrganizationID: org.ID,
				CreatedAt:      time.Now().Unix(),
			}
			if err := roleRepo.Create(role); err != nil {
				log.Fatalf("Failed to create role %s: %v", name, err)
			}
			log.Printf("Created role: %s", name)
		}
		roleIDs[name] = role.ID

		for _, permName := range grants[name] {
			if err := roleRepo.AssignPermission(role.ID, byName[permName]); err != nil {
				log.Fatalf("Failed to grant %s to %s: %v", permName, name, err)
			}
		}
	}

	admin, err := userRepo.GetByEmail(*adminEmail)
	if err != nil {
		log.Fatalf("Failed to look up admin user: %v", err)
	}
	if admin == nil {
		hash, err := auth.HashPassword(*adminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		admin = &models.User{
			ID:             "usr_" + uuid.NewString(),
			OrganizationID: org.ID,
			FirstName:      "Admin",
			LastName:       "User",
			Email:          *adminEmail,
			PasswordHash:   hash,
			RoleID:         roleIDs["admin"],
			EmailVerified:  true,
			CreatedAt:      time.Now().Unix(),
		}
		if err := userRepo.Create(admin); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Created admin user: %s", admin.Email)
	}

	fmt.Println("Seed completed successfully")
}
