package handlers

import (
	"encoding/json"
	"net/http"

	"rbac/internal/api/middleware"
	"rbac/internal/engine/accounts"
	"rbac/internal/pkg/errors"
	"rbac/internal/platform/models"
	"rbac/internal/platform/repositories"
)

type UserHandler struct {
	accounts *accounts.Service
	userRepo *repositories.UserRepository
	orgRepo  *repositories.OrganizationRepository
	roleRepo *repositories.RoleRepository
}

func NewUserHandler(accountsSvc *accounts.Service, userRepo *repositories.UserRepository, orgRepo *repositories.OrganizationRepository, roleRepo *repositories.RoleRepository) *UserHandler {
	return &UserHandler{accounts: accountsSvc, userRepo: userRepo, orgRepo: orgRepo, roleRepo: roleRepo}
}

type CreateUserRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

// Create is the administrative variant of registration: same lifecycle
// (unverified, code on file, best-effort mail), no confirm-password field.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.accounts.Register(accounts.RegisterInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Password:         req.Password,
		ConfirmPassword:  req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		errors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Me is the self-profile read; it is the only data-revealing endpoint
// gated by authentication alone.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	org, err := h.orgRepo.GetByID(user.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	user.Organization = org

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	users, err := h.userRepo.List(limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.loadUser(param(r, "id"))
	if err != nil {
		errors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Update accepts only the explicitly mutable fields; unknown fields are
// rejected rather than silently dropped.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req repositories.UserUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	id := param(r, "id")
	user, err := h.userRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	// A reassigned role must belong to the user's own organization.
	if req.RoleID != nil {
		role, err := h.roleRepo.GetByID(*req.RoleID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if role == nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Role not found", nil)
			return
		}
		if role.OrganizationID != user.OrganizationID {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Role belongs to a different organization", nil)
			return
		}
	}

	if err := h.userRepo.Update(id, req); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update user", nil)
		return
	}

	updated, err := h.loadUser(id)
	if err != nil {
		errors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	if err := h.userRepo.Delete(id); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete user", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "User deleted successfully"})
}

func (h *UserHandler) loadUser(id string) (*models.User, error) {
	user, err := h.userRepo.GetByID(id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if user == nil {
		return nil, errors.NotFound("User not found")
	}

	org, err := h.orgRepo.GetByID(user.OrganizationID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	role, err := h.roleRepo.GetByID(user.RoleID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	user.Organization = org
	user.Role = role
	return user, nil
}
