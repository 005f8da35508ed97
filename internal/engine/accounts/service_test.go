package accounts

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "rbac/internal/pkg/errors"
	"rbac/internal/platform/auth"
	"rbac/internal/platform/config"
	"rbac/internal/platform/repositories"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	// In-memory sqlite is per-connection; a single pooled connection keeps
	// every query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE permissions (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT
	);
	CREATE TABLE roles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		created_at INTEGER NOT NULL,
		UNIQUE (name, organization_id)
	);
	CREATE TABLE role_permissions (
		role_id TEXT NOT NULL REFERENCES roles(id),
		permission_id TEXT NOT NULL REFERENCES permissions(id),
		PRIMARY KEY (role_id, permission_id)
	);
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role_id TEXT NOT NULL REFERENCES roles(id),
		is_email_verified INTEGER NOT NULL DEFAULT 0,
		email_verification_code TEXT,
		email_verification_expires INTEGER,
		password_reset_code TEXT,
		password_reset_expires INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *sql.DB, *fakeMailer) {
	t.Helper()

	db := setupTestDB(t)
	sender := &fakeMailer{}
	tokens := auth.NewTokenService(config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})

	svc := NewService(
		db,
		repositories.NewUserRepository(db),
		repositories.NewOrganizationRepository(db),
		repositories.NewRoleRepository(db),
		tokens,
		sender,
		10*time.Minute,
	)
	return svc, db, sender
}

func registerInput() RegisterInput {
	return RegisterInput{
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "a@x.com",
		Password:         "s3cret-pass",
		ConfirmPassword:  "s3cret-pass",
		OrganizationName: "Acme",
	}
}

func kindOf(t *testing.T, err error, want apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	if !apperrors.IsKind(err, want) {
		t.Fatalf("Expected %s error, got %v", want, err)
	}
}

func TestRegisterCreatesOrgRoleAndUnverifiedUser(t *testing.T) {
	svc, db, sender := newTestService(t)

	user, err := svc.Register(registerInput())
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if user.EmailVerified {
		t.Error("New user must start unverified")
	}
	if user.Organization == nil || user.Organization.Name != "Acme" {
		t.Errorf("Expected organization Acme, got %+v", user.Organization)
	}
	if user.Role == nil || user.Role.Name != DefaultRoleName {
		t.Errorf("Expected default role, got %+v", user.Role)
	}
	if user.Role != nil && user.Role.OrganizationID != user.OrganizationID {
		t.Error("Role must belong to the user's organization")
	}

	stored, err := repositories.NewUserRepository(db).GetByEmail("a@x.com")
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if stored.EmailVerificationCode == nil || len(*stored.EmailVerificationCode) != 6 {
		t.Fatalf("Expected stored 6-digit code, got %v", stored.EmailVerificationCode)
	}
	if stored.EmailVerificationExpires == nil {
		t.Fatal("Expected expiry paired with code")
	}
	delta := *stored.EmailVerificationExpires - time.Now().Unix()
	if delta < 9*60 || delta > 10*60 {
		t.Errorf("Expected ~10 minute expiry, got %ds", delta)
	}

	if sender.sentCount() != 1 {
		t.Errorf("Expected one verification email, got %d", sender.sentCount())
	}
}

func TestRegisterReusesExistingOrgAndRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Register(registerInput())
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	input := registerInput()
	input.Email = "b@x.com"
	second, err := svc.Register(input)
	if err != nil {
		t.Fatalf("Failed to register second user: %v", err)
	}

	if second.OrganizationID != first.OrganizationID {
		t.Error("Same organization name must resolve to the same organization")
	}
	if second.RoleID != first.RoleID {
		t.Error("Default role must be reused within the organization")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := registerInput()
	input.ConfirmPassword = "different"
	_, err := svc.Register(input)
	kindOf(t, err, apperrors.KindValidation)

	input = registerInput()
	input.Email = "not-an-email"
	_, err = svc.Register(input)
	kindOf(t, err, apperrors.KindValidation)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	_, err = svc.Register(registerInput())
	kindOf(t, err, apperrors.KindConflict)
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	svc, db, sender := newTestService(t)
	sender.fail = true

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Registration must not abort on delivery failure: %v", err)
	}

	stored, err := repositories.NewUserRepository(db).GetByEmail("a@x.com")
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if stored == nil || stored.EmailVerificationCode == nil {
		t.Fatal("Code must still be generated and stored when mail fails")
	}
}

func storedVerificationCode(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	user, err := repositories.NewUserRepository(db).GetByEmail(email)
	if err != nil || user == nil || user.EmailVerificationCode == nil {
		t.Fatalf("Failed to fetch stored code: user=%v err=%v", user, err)
	}
	return *user.EmailVerificationCode
}

func TestVerifyEmailRoundTrip(t *testing.T) {
	svc, db, _ := newTestService(t)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	code := storedVerificationCode(t, db, "a@x.com")

	user, err := svc.VerifyEmail("a@x.com", code)
	if err != nil {
		t.Fatalf("Failed to verify email: %v", err)
	}
	if !user.EmailVerified {
		t.Error("Expected user verified")
	}
	if user.EmailVerificationCode != nil || user.EmailVerificationExpires != nil {
		t.Error("Expected code and expiry cleared")
	}

	// Second consumption must report already-verified, never succeed.
	_, err = svc.VerifyEmail("a@x.com", code)
	kindOf(t, err, apperrors.KindConflict)
}

func TestVerifyEmailValidationLadder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyEmail("ghost@x.com", "123456")
	kindOf(t, err, apperrors.KindNotFound)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	_, err = svc.VerifyEmail("a@x.com", "000000")
	kindOf(t, err, apperrors.KindValidation)
}

func TestVerifyEmailExpiryBoundary(t *testing.T) {
	svc, db, _ := newTestService(t)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	code := storedVerificationCode(t, db, "a@x.com")

	// expiry == now is already expired
	if _, err := db.Exec(`UPDATE users SET email_verification_expires = ? WHERE email = ?`,
		time.Now().Unix(), "a@x.com"); err != nil {
		t.Fatalf("Failed to adjust expiry: %v", err)
	}
	_, err := svc.VerifyEmail("a@x.com", code)
	kindOf(t, err, apperrors.KindValidation)

	// one second before expiry is still valid
	if _, err := db.Exec(`UPDATE users SET email_verification_expires = ? WHERE email = ?`,
		time.Now().Unix()+60, "a@x.com"); err != nil {
		t.Fatalf("Failed to adjust expiry: %v", err)
	}
	if _, err := svc.VerifyEmail("a@x.com", code); err != nil {
		t.Errorf("Code before expiry should verify: %v", err)
	}
}

func TestConcurrentVerifyEmail(t *testing.T) {
	svc, db, _ := newTestService(t)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	code := storedVerificationCode(t, db, "a@x.com")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyEmail("a@x.com", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicted++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("Expected exactly one success and one conflict, got %d/%d", succeeded, conflicted)
	}
}

func verifiedUser(t *testing.T, svc *Service, db *sql.DB) {
	t.Helper()
	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	code := storedVerificationCode(t, db, "a@x.com")
	if _, err := svc.VerifyEmail("a@x.com", code); err != nil {
		t.Fatalf("Failed to verify email: %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, db, _ := newTestService(t)
	verifiedUser(t, svc, db)

	pair, err := svc.Login("a@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Errorf("Unexpected token pair: %+v", pair)
	}

	_, wrongPw := svc.Login("a@x.com", "wrong")
	_, noUser := svc.Login("ghost@x.com", "s3cret-pass")
	kindOf(t, wrongPw, apperrors.KindAuth)
	kindOf(t, noUser, apperrors.KindAuth)
	if wrongPw.Error() != noUser.Error() {
		t.Error("Login failures must be indistinguishable")
	}
}

func TestLoginBeforeVerificationForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Register(registerInput()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	_, err := svc.Login("a@x.com", "s3cret-pass")
	kindOf(t, err, apperrors.KindForbidden)
}

func TestRefreshRotation(t *testing.T) {
	svc, db, _ := newTestService(t)
	verifiedUser(t, svc, db)

	pair, err := svc.Login("a@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	rotated, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Error("Refresh must issue a full new pair")
	}

	_, err = svc.Refresh(pair.AccessToken)
	kindOf(t, err, apperrors.KindAuth)

	_, err = svc.Refresh("garbage")
	kindOf(t, err, apperrors.KindAuth)
}

func TestRefreshForDeletedUser(t *testing.T) {
	svc, db, _ := newTestService(t)
	verifiedUser(t, svc, db)

	pair, err := svc.Login("a@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM users WHERE email = ?`, "a@x.com"); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	_, err = svc.Refresh(pair.RefreshToken)
	kindOf(t, err, apperrors.KindAuth)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, db, sender := newTestService(t)
	verifiedUser(t, svc, db)
	sender.sent = nil

	// Unknown email: silent success, no mail, no write.
	if err := svc.RequestPasswordReset("ghost@x.com"); err != nil {
		t.Fatalf("Unknown email must report success: %v", err)
	}
	if sender.sentCount() != 0 {
		t.Error("No mail may be sent for unknown email")
	}

	if err := svc.RequestPasswordReset("a@x.com"); err != nil {
		t.Fatalf("Failed to request reset: %v", err)
	}
	if sender.sentCount() != 1 {
		t.Errorf("Expected one reset email, got %d", sender.sentCount())
	}

	user, err := repositories.NewUserRepository(db).GetByEmail("a@x.com")
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if user.PasswordResetCode == nil || user.PasswordResetExpires == nil {
		t.Error("Expected reset code and expiry stored together")
	}
}

func TestRequestPasswordResetDeliveryFailure(t *testing.T) {
	svc, db, sender := newTestService(t)
	verifiedUser(t, svc, db)
	sender.fail = true

	err := svc.RequestPasswordReset("a@x.com")
	kindOf(t, err, apperrors.KindDelivery)
}

func TestResetPasswordRoundTrip(t *testing.T) {
	svc, db, _ := newTestService(t)
	verifiedUser(t, svc, db)

	if err := svc.RequestPasswordReset("a@x.com"); err != nil {
		t.Fatalf("Failed to request reset: %v", err)
	}
	user, _ := repositories.NewUserRepository(db).GetByEmail("a@x.com")
	code := *user.PasswordResetCode

	if err := svc.VerifyResetCode("a@x.com", code); err != nil {
		t.Fatalf("Valid reset code should verify: %v", err)
	}
	// Read-only check must not consume the code.
	if err := svc.VerifyResetCode("a@x.com", code); err != nil {
		t.Fatalf("VerifyResetCode must not mutate state: %v", err)
	}

	err := svc.VerifyResetCode("a@x.com", "000000")
	kindOf(t, err, apperrors.KindValidation)

	_, err = svc.ResetPassword("a@x.com", code, "new-pass", "mismatch")
	kindOf(t, err, apperrors.KindValidation)

	if _, err := svc.ResetPassword("a@x.com", code, "new-pass", "new-pass"); err != nil {
		t.Fatalf("Failed to reset password: %v", err)
	}

	if _, err := svc.Login("a@x.com", "s3cret-pass"); err == nil {
		t.Error("Old password must no longer work")
	}
	if _, err := svc.Login("a@x.com", "new-pass"); err != nil {
		t.Errorf("New password should work: %v", err)
	}

	// Code is single-use.
	_, err = svc.ResetPassword("a@x.com", code, "another", "another")
	kindOf(t, err, apperrors.KindValidation)
}
