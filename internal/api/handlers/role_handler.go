package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rbac/internal/pkg/errors"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

type RoleHandler struct {
	roleRepo *repositories.RoleRepository
	orgRepo  *repositories.OrganizationRepository
	permRepo *repositories.PermissionRepository
	userRepo *repositories.UserRepository
}

func NewRoleHandler(roleRepo *repositories.RoleRepository, orgRepo *repositories.OrganizationRepository, permRepo *repositories.PermissionRepository, userRepo *repositories.UserRepository) *RoleHandler {
	return &RoleHandler{roleRepo: roleRepo, orgRepo: orgRepo, permRepo: permRepo, userRepo: userRepo}
}

type CreateRoleRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" || req.OrganizationID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name and organization_id are required", nil)
		return
	}

	org, err := h.orgRepo.GetByID(req.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	existing, err := h.roleRepo.GetByName(req.Name, req.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Role already exists in this organization", nil)
		return
	}

	role := &models.Role{
		ID:             "rol_" + uuid.NewString(),
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
		CreatedAt:      time.Now().Unix(),
		Permissions:    []models.Permission{},
	}
	if err := h.roleRepo.Create(role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create role", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(role)
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	roles, err := h.roleRepo.List(limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roles)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.roleRepo.GetByID(param(r, "id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if role == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Role not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(role)
}

type UpdateRoleRequest struct {
	Name string `json:"name"`
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}

	id := param(r, "id")
	role, err := h.roleRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if role == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Role not found", nil)
		return
	}

	if err := h.roleRepo.Update(id, req.Name); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update role", nil)
		return
	}
	role.Name = req.Name

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(role)
}

// Delete is restricted while users still hold the role.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	role, err := h.roleRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if role == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Role not found", nil)
		return
	}

	users, err := h.userRepo.CountByRole(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if users > 0 {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Role is still assigned to users", nil)
		return
	}

	if err := h.roleRepo.Delete(id); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete role", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Role deleted successfully"})
}

func (h *RoleHandler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	role, perm, ok := h.rolePermissionPair(w, r)
	if !ok {
		return
	}

	if err := h.roleRepo.AssignPermission(role.ID, perm.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to assign permission", nil)
		return
	}

	updated, err := h.roleRepo.GetByID(role.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Permission assigned to role successfully",
		"role":    updated,
	})
}

func (h *RoleHandler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	role, perm, ok := h.rolePermissionPair(w, r)
	if !ok {
		return
	}

	if err := h.roleRepo.RemovePermission(role.ID, perm.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove permission", nil)
		return
	}

	updated, err := h.roleRepo.GetByID(role.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Permission removed from role successfully",
		"role":    updated,
	})
}

func (h *RoleHandler) rolePermissionPair(w http.ResponseWriter, r *http.Request) (*models.Role, *models.Permission, bool) {
	role, err := h.roleRepo.GetByID(param(r, "id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, nil, false
	}
	if role == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Role not found", nil)
		return nil, nil, false
	}

	perm, err := h.permRepo.GetByID(param(r, "permission_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, nil, false
	}
	if perm == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Permission not found", nil)
		return nil, nil, false
	}

	return role, perm, true
}
