package repositories

import (
	"database/sql"

	"rbac/internal/platform/models"
)

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(role *models.Role) error {
	_, err := r.db.Exec(`
		INSERT INTO roles (id, name, organization_id, created_at)
		VALUES (?, ?, ?, ?)
	`, role.ID, role.Name, role.OrganizationID, role.CreatedAt)
	return err
}

func (r *RoleRepository) CreateTx(tx *sql.Tx, role *models.Role) error {
	_, err := tx.Exec(`
		INSERT INTO roles (id, name, organization_id, created_at)
		VALUES (?, ?, ?, ?)
	`, role.ID, role.Name, role.OrganizationID, role.CreatedAt)
	return err
}

// GetByID returns the role with its permission set loaded.
func (r *RoleRepository) GetByID(id string) (*models.Role, error) {
	role, err := r.scanOne(r.db.QueryRow(`
		SELECT id, name, organization_id, created_at FROM roles WHERE id = ?
	`, id))
	if err != nil || role == nil {
		return role, err
	}

	role.Permissions, err = r.ListPermissions(id)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// GetByName resolves a role name within one organization. Role names are
// only meaningful org-scoped.
func (r *RoleRepository) GetByName(name, orgID string) (*models.Role, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, name, organization_id, created_at FROM roles WHERE name = ? AND organization_id = ?
	`, name, orgID))
}

func (r *RoleRepository) GetByNameTx(tx *sql.Tx, name, orgID string) (*models.Role, error) {
	return r.scanOne(tx.QueryRow(`
		SELECT id, name, organization_id, created_at FROM roles WHERE name = ? AND organization_id = ?
	`, name, orgID))
}

func (r *RoleRepository) scanOne(row *sql.Row) (*models.Role, error) {
	role := &models.Role{}
	err := row.Scan(&role.ID, &role.Name, &role.OrganizationID, &role.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	role.Permissions = []models.Permission{}
	return role, nil
}

func (r *RoleRepository) List(limit, offset int) ([]*models.Role, error) {
	rows, err := r.db.Query(`
		SELECT id, name, organization_id, created_at FROM roles
		ORDER BY created_at LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collectWithPermissions(rows)
}

func (r *RoleRepository) ListByOrganization(orgID string) ([]*models.Role, error) {
	rows, err := r.db.Query(`
		SELECT id, name, organization_id, created_at FROM roles
		WHERE organization_id = ? ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	return r.collectWithPermissions(rows)
}

func (r *RoleRepository) collectWithPermissions(rows *sql.Rows) ([]*models.Role, error) {
	defer rows.Close()

	roles := []*models.Role{}
	for rows.Next() {
		role := &models.Role{Permissions: []models.Permission{}}
		if err := rows.Scan(&role.ID, &role.Name, &role.OrganizationID, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, role := range roles {
		perms, err := r.ListPermissions(role.ID)
		if err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	return roles, nil
}

func (r *RoleRepository) ListPermissions(roleID string) ([]models.Permission, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ?
		ORDER BY p.name
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *RoleRepository) Update(id, name string) error {
	_, err := r.db.Exec(`UPDATE roles SET name = ? WHERE id = ?`, name, id)
	return err
}

func (r *RoleRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM roles WHERE id = ?`, id)
	return err
}

func (r *RoleRepository) CountByOrganization(orgID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM roles WHERE organization_id = ?`, orgID).Scan(&n)
	return n, err
}

// AssignPermission is idempotent: assigning an already-held permission is
// not an error.
func (r *RoleRepository) AssignPermission(roleID, permissionID string) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)
	`, roleID, permissionID)
	return err
}

func (r *RoleRepository) RemovePermission(roleID, permissionID string) error {
	_, err := r.db.Exec(`
		DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?
	`, roleID, permissionID)
	return err
}
