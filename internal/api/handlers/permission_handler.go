package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"rbac/internal/pkg/errors"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

type PermissionHandler struct {
	permRepo *repositories.PermissionRepository
}

func NewPermissionHandler(permRepo *repositories.PermissionRepository) *PermissionHandler {
	return &PermissionHandler{permRepo: permRepo}
}

type PermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}

	existing, err := h.permRepo.GetByName(req.Name)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Permission already exists", nil)
		return
	}

	perm := &models.Permission{
		ID:          "prm_" + uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.permRepo.Create(perm); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create permission", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perm)
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	perms, err := h.permRepo.List(limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perms)
}

func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	perm, err := h.permRepo.GetByID(param(r, "id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if perm == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Permission not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perm)
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req PermissionRequest
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
	perm, err := h.permRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if perm == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Permission not found", nil)
		return
	}

	if err := h.permRepo.Update(id, req.Name, req.Description); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update permission", nil)
		return
	}
	perm.Name = req.Name
	perm.Description = req.Description

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(perm)
}

// Delete is restricted while roles still reference the permission.
func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	perm, err := h.permRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if perm == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Permission not found", nil)
		return
	}

	assigned, err := h.permRepo.CountRoleAssignments(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if assigned > 0 {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Permission is still assigned to roles", nil)
		return
	}

	if err := h.permRepo.Delete(id); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete permission", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Permission deleted successfully"})
}
