package repositories

import (
	"database/sql"

	"rbac/internal/platform/models"
)

type PermissionRepository struct {
	db *sql.DB
}

func NewPermissionRepository(db *sql.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(perm *models.Permission) error {
	_, err := r.db.Exec(`
		INSERT INTO permissions (id, name, description) VALUES (?, ?, ?)
	`, perm.ID, perm.Name, perm.Description)
	return err
}

func (r *PermissionRepository) GetByID(id string) (*models.Permission, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, name, description FROM permissions WHERE id = ?
	`, id))
}

func (r *PermissionRepository) GetByName(name string) (*models.Permission, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, name, description FROM permissions WHERE name = ?
	`, name))
}

func (r *PermissionRepository) scanOne(row *sql.Row) (*models.Permission, error) {
	perm := &models.Permission{}
	err := row.Scan(&perm.ID, &perm.Name, &perm.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return perm, nil
}

func (r *PermissionRepository) List(limit, offset int) ([]*models.Permission, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description FROM permissions ORDER BY name LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []*models.Permission{}
	for rows.Next() {
		perm := &models.Permission{}
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *PermissionRepository) Update(id, name, description string) error {
	_, err := r.db.Exec(`
		UPDATE permissions SET name = ?, description = ? WHERE id = ?
	`, name, description, id)
	return err
}

func (r *PermissionRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM permissions WHERE id = ?`, id)
	return err
}

// CountRoleAssignments reports how many roles still reference the
// permission. Deletion is restricted while this is non-zero.
func (r *PermissionRepository) CountRoleAssignments(id string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM role_permissions WHERE permission_id = ?`, id).Scan(&n)
	return n, err
}
