package repositories

import (
	"database/sql"

	"rbac/internal/platform/models"
)

const userColumns = `id, organization_id, first_name, last_name, email, password_hash, role_id,
		is_email_verified, email_verification_code, email_verification_expires,
		password_reset_code, password_reset_expires, created_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.OrganizationID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.RoleID,
		user.EmailVerified, user.EmailVerificationCode, user.EmailVerificationExpires,
		user.PasswordResetCode, user.PasswordResetExpires, user.CreatedAt)
	return err
}

func (r *UserRepository) CreateTx(tx *sql.Tx, user *models.User) error {
	_, err := tx.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.OrganizationID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.RoleID,
		user.EmailVerified, user.EmailVerificationCode, user.EmailVerificationExpires,
		user.PasswordResetCode, user.PasswordResetExpires, user.CreatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.OrganizationID, &user.FirstName, &user.LastName, &user.Email,
		&user.PasswordHash, &user.RoleID, &user.EmailVerified,
		&user.EmailVerificationCode, &user.EmailVerificationExpires,
		&user.PasswordResetCode, &user.PasswordResetExpires, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) List(limit, offset int) ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) ListByOrganization(orgID string) ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT `+userColumns+` FROM users WHERE organization_id = ? ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.OrganizationID, &user.FirstName, &user.LastName, &user.Email,
			&user.PasswordHash, &user.RoleID, &user.EmailVerified,
			&user.EmailVerificationCode, &user.EmailVerificationExpires,
			&user.PasswordResetCode, &user.PasswordResetExpires, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UserUpdate enumerates the only fields an administrative update may touch.
// Lifecycle fields (verification, reset, password) go through the dedicated
// writes below.
type UserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	RoleID    *string `json:"role_id"`
}

func (r *UserRepository) Update(id string, update UserUpdate) error {
	user, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return sql.ErrNoRows
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.RoleID != nil {
		user.RoleID = *update.RoleID
	}

	_, err = r.db.Exec(`
		UPDATE users SET first_name = ?, last_name = ?, role_id = ? WHERE id = ?
	`, user.FirstName, user.LastName, user.RoleID, id)
	return err
}

func (r *UserRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) CountByOrganization(orgID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE organization_id = ?`, orgID).Scan(&n)
	return n, err
}

func (r *UserRepository) CountByRole(roleID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID).Scan(&n)
	return n, err
}

// MarkEmailVerified flips the verified flag and clears the verification
// code and expiry in one statement. The guard on is_email_verified and the
// stored code makes concurrent consumption race-safe: only one caller can
// observe a row affected.
func (r *UserRepository) MarkEmailVerified(id, code string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE users
		SET is_email_verified = 1, email_verification_code = NULL, email_verification_expires = NULL
		WHERE id = ? AND is_email_verified = 0 AND email_verification_code = ?
	`, id, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *UserRepository) SetResetCode(id, code string, expires int64) error {
	_, err := r.db.Exec(`
		UPDATE users SET password_reset_code = ?, password_reset_expires = ? WHERE id = ?
	`, code, expires, id)
	return err
}

// ResetPassword replaces the password hash and clears the reset code and
// expiry atomically. Guarded on the stored code so a concurrent reset or
// re-request cannot double-consume.
func (r *UserRepository) ResetPassword(id, code, passwordHash string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE users
		SET password_hash = ?, password_reset_code = NULL, password_reset_expires = NULL
		WHERE id = ? AND password_reset_code = ?
	`, passwordHash, id, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
