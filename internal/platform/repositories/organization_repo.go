package repositories

import (
	"database/sql"

	"rbac/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	_, err := r.db.Exec(`
		INSERT INTO organizations (id, name, created_at)
		VALUES (?, ?, ?)
	`, org.ID, org.Name, org.CreatedAt)
	return err
}

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, name, created_at)
		VALUES (?, ?, ?)
	`, org.ID, org.Name, org.CreatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, name, created_at FROM organizations WHERE id = ?
	`, id))
}

func (r *OrganizationRepository) GetByName(name string) (*models.Organization, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, name, created_at FROM organizations WHERE name = ?
	`, name))
}

func (r *OrganizationRepository) GetByNameTx(tx *sql.Tx, name string) (*models.Organization, error) {
	return r.scanOne(tx.QueryRow(`
		SELECT id, name, created_at FROM organizations WHERE name = ?
	`, name))
}

func (r *OrganizationRepository) scanOne(row *sql.Row) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *OrganizationRepository) List(limit, offset int) ([]*models.Organization, error) {
	rows, err := r.db.Query(`
		SELECT id, name, created_at FROM organizations
		ORDER BY created_at LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []*models.Organization{}
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepository) Update(id, name string) error {
	_, err := r.db.Exec(`UPDATE organizations SET name = ? WHERE id = ?`, name, id)
	return err
}

func (r *OrganizationRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM organizations WHERE id = ?`, id)
	return err
}
