// Package accounts orchestrates the credential lifecycle: registration,
// email verification, login, token refresh, and password reset. All writes
// to user lifecycle fields go through this service so the paired
// code/expiry invariants hold.
package accounts

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rbac/internal/pkg/errors"
	"rbac/internal/pkg/validator"
	"rbac/internal/platform/auth"
	"rbac/internal/platform/mailer"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

// DefaultRoleName is the role assigned to self-registered users, created
// lazily per organization.
const DefaultRoleName = "user"

type Service struct {
	db      *sql.DB
	users   *repositories.UserRepository
	orgs    *repositories.OrganizationRepository
	roles   *repositories.RoleRepository
	tokens  *auth.TokenService
	mailer  mailer.Sender
	codeTTL time.Duration
}

func NewService(
	db *sql.DB,
	users *repositories.UserRepository,
	orgs *repositories.OrganizationRepository,
	roles *repositories.RoleRepository,
	tokens *auth.TokenService,
	sender mailer.Sender,
	codeTTL time.Duration,
) *Service {
	return &Service{
		db:      db,
		users:   users,
		orgs:    orgs,
		roles:   roles,
		tokens:  tokens,
		mailer:  sender,
		codeTTL: codeTTL,
	}
}

type RegisterInput struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	OrganizationName string `json:"organization_name"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register creates an unverified user, resolving or creating the named
// organization and its default role in the same transaction. The
// verification email is best-effort: a delivery failure is logged but
// never aborts registration, since the stored code still allows
// out-of-band verification.
func (s *Service) Register(input RegisterInput) (*models.User, error) {
	if input.FirstName == "" || input.LastName == "" || input.OrganizationName == "" {
		return nil, errors.Validation("First name, last name and organization name are required")
	}
	if err := validator.ValidEmail(input.Email); err != nil {
		return nil, errors.Validation(err.Error())
	}
	if input.Password == "" {
		return nil, errors.Validation("Password is required")
	}
	if input.Password != input.ConfirmPassword {
		return nil, errors.Validation("Passwords do not match")
	}

	existing, err := s.users.GetByEmail(input.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if existing != nil {
		return nil, errors.Conflict("Email already registered")
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, errors.Internal(err)
	}

	now := time.Now()
	expires := now.Add(s.codeTTL).Unix()

	user := &models.User{
		ID:                       "usr_" + uuid.NewString(),
		FirstName:                input.FirstName,
		LastName:                 input.LastName,
		Email:                    input.Email,
		PasswordHash:             passwordHash,
		EmailVerified:            false,
		EmailVerificationCode:    &code,
		EmailVerificationExpires: &expires,
		CreatedAt:                now.Unix(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Internal(err)
	}
	defer tx.Rollback()

	org, err := s.orgs.GetByNameTx(tx, input.OrganizationName)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if org == nil {
		org = &models.Organization{
			ID:        "org_" + uuid.NewString(),
			Name:      input.OrganizationName,
			CreatedAt: now.Unix(),
		}
		if err := s.orgs.CreateTx(tx, org); err != nil {
			return nil, errors.Internal(err)
		}
	}

	role, err := s.roles.GetByNameTx(tx, DefaultRoleName, org.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if role == nil {
		role = &models.Role{
			ID:             "rol_" + uuid.NewString(),
			Name:           DefaultRoleName,
			OrganizationID: org.ID,
			CreatedAt:      now.Unix(),
			Permissions:    []models.Permission{},
		}
		if err := s.roles.CreateTx(tx, role); err != nil {
			return nil, errors.Internal(err)
		}
	}

	user.OrganizationID = org.ID
	user.RoleID = role.ID
	if err := s.users.CreateTx(tx, user); err != nil {
		return nil, errors.Internal(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Internal(err)
	}

	subject, body := mailer.VerificationEmail(code)
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("verification email not delivered, code remains on file")
	}

	user.Organization = org
	user.Role = role
	return user, nil
}

// VerifyEmail consumes a verification code. The flip to verified and the
// clearing of code and expiry happen in one guarded update, so of two
// concurrent attempts with the same valid code exactly one succeeds and
// the other observes already-verified.
func (s *Service) VerifyEmail(email, code string) (*models.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.NotFound("User not found")
	}
	if user.EmailVerified {
		return nil, errors.Conflict("Email already verified")
	}
	if user.EmailVerificationCode == nil || user.EmailVerificationExpires == nil {
		return nil, errors.Validation("No verification code found")
	}
	if time.Now().Unix() >= *user.EmailVerificationExpires {
		return nil, errors.Validation("Verification code expired")
	}
	if *user.EmailVerificationCode != code {
		return nil, errors.Validation("Invalid verification code")
	}

	ok, err := s.users.MarkEmailVerified(user.ID, code)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		// Lost the race: a concurrent attempt consumed the code first.
		return nil, errors.Conflict("Email already verified")
	}

	verified, err := s.users.GetByID(user.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return s.withRelations(verified)
}

// Login validates credentials and issues an access/refresh token pair. The
// failure message is uniform so callers cannot distinguish an unknown
// email from a wrong password.
func (s *Service) Login(email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Auth("Incorrect username or password")
	}
	if !user.EmailVerified {
		return nil, errors.Forbidden("Email not verified. Please verify your email first.")
	}

	return s.issuePair(user.Email)
}

// Refresh rotates a refresh token: both a new access token and a new
// refresh token are issued.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Auth("Invalid refresh token")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.Auth("Invalid refresh token")
	}

	return s.issuePair(user.Email)
}

func (s *Service) issuePair(email string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// RequestPasswordReset stores a fresh reset code and mails it. An unknown
// email reports success without sending or writing anything, so the
// endpoint cannot be used to probe for accounts. A delivery failure here
// does abort: unlike registration there is no user-visible artifact to
// fall back on.
func (s *Service) RequestPasswordReset(email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return errors.Internal(err)
	}
	if user == nil {
		return nil
	}

	code, err := GenerateCode()
	if err != nil {
		return errors.Internal(err)
	}
	expires := time.Now().Add(s.codeTTL).Unix()

	if err := s.users.SetResetCode(user.ID, code, expires); err != nil {
		return errors.Internal(err)
	}

	subject, body := mailer.PasswordResetEmail(code)
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		return errors.Delivery("Failed to send password reset email", err)
	}
	return nil
}

// VerifyResetCode runs the reset-code validation ladder without mutating
// anything.
func (s *Service) VerifyResetCode(email, code string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return errors.Internal(err)
	}
	if user == nil {
		return errors.NotFound("User not found")
	}
	return validateResetCode(user, code)
}

// ResetPassword replaces the password hash and clears the reset code and
// expiry in one guarded update.
func (s *Service) ResetPassword(email, code, newPassword, confirmPassword string) (*models.User, error) {
	if newPassword == "" {
		return nil, errors.Validation("Password is required")
	}
	if newPassword != confirmPassword {
		return nil, errors.Validation("Passwords do not match")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.NotFound("User not found")
	}
	if verr := validateResetCode(user, code); verr != nil {
		return nil, verr
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, errors.Internal(err)
	}

	ok, err := s.users.ResetPassword(user.ID, code, passwordHash)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		// A concurrent reset consumed the code between our read and write.
		return nil, errors.Validation("Invalid reset code")
	}

	updated, err := s.users.GetByID(user.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return s.withRelations(updated)
}

func validateResetCode(user *models.User, code string) error {
	if user.PasswordResetCode == nil || user.PasswordResetExpires == nil {
		return errors.Validation("No reset code found")
	}
	if time.Now().Unix() >= *user.PasswordResetExpires {
		return errors.Validation("Reset code expired")
	}
	if *user.PasswordResetCode != code {
		return errors.Validation("Invalid reset code")
	}
	return nil
}

func (s *Service) withRelations(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.NotFound("User not found")
	}
	org, err := s.orgs.GetByID(user.OrganizationID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	role, err := s.roles.GetByID(user.RoleID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	user.Organization = org
	user.Role = role
	return user, nil
}
