package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"rbac/internal/platform/auth"
	"rbac/internal/platform/config"
	"rbac/internal/platform/repositories"
)

func newTokenService() *auth.TokenService {
	return auth.NewTokenService(config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func userRows(verified bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization_id", "first_name", "last_name", "email", "password_hash", "role_id",
		"is_email_verified", "email_verification_code", "email_verification_expires",
		"password_reset_code", "password_reset_expires", "created_at",
	}).AddRow("usr_1", "org_1", "Ada", "Lovelace", "a@x.com", "hash", "rol_1",
		verified, nil, nil, nil, nil, 1234567890)
}

func TestAuthMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	tokenSvc := newTokenService()
	m := NewAuthMiddleware(tokenSvc, repositories.NewUserRepository(db), repositories.NewRoleRepository(db))

	t.Run("Missing Header", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()

		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()

		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})

	t.Run("Refresh Token Rejected", func(t *testing.T) {
		refresh, err := tokenSvc.IssueRefreshToken("a@x.com")
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}

		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rr := httptest.NewRecorder()

		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})

	t.Run("Unverified User Forbidden", func(t *testing.T) {
		token, err := tokenSvc.IssueAccessToken("a@x.com")
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("a@x.com").
			WillReturnRows(userRows(false))

		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Unverified caller must not reach the handler")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
	})

	t.Run("Verified User Passes", func(t *testing.T) {
		token, err := tokenSvc.IssueAccessToken("a@x.com")
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("a@x.com").
			WillReturnRows(userRows(true))
		mock.ExpectQuery("SELECT (.+) FROM roles WHERE id = ?").
			WithArgs("rol_1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "organization_id", "created_at"}).
				AddRow("rol_1", "admin", "org_1", 1234567890))
		mock.ExpectQuery("SELECT (.+) FROM permissions p").
			WithArgs("rol_1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
				AddRow("prm_1", "view_users", "View users"))

		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		called := false
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			called = true
			user := CurrentUser(r)
			if user == nil || user.Email != "a@x.com" {
				t.Errorf("Expected user in context, got %+v", user)
			}
			if user.Role == nil || len(user.Role.Permissions) != 1 {
				t.Errorf("Expected role with permissions loaded, got %+v", user.Role)
			}
			w.WriteHeader(http.StatusOK)
		}).ServeHTTP(rr, req)

		if !called {
			t.Error("Handler should have been called")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})
}
