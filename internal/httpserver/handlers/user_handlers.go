package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"crmcore/internal/auth"
	"crmcore/internal/models"
	"crmcore/internal/store"
)

type userResp struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	RoleID             *uint  `json:"role_id,omitempty"`
	RoleName           string `json:"role_name,omitempty"`
	IsActive           bool   `json:"is_active"`
	MustChangePassword bool   `json:"must_change_password"`
}

func toUserResp(u models.User) userResp {
	out := userResp{
		ID:                 u.ID,
		Username:           u.Username,
		RoleID:             u.RoleID,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
	}
	if u.Role != nil {
		out.RoleName = u.Role.Name
	}
	return out
}

func CreateUser(users *store.UserStore, roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			RoleID   *uint  `json:"role_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}
		if req.RoleID != nil {
			if _, err := roles.ByID(r.Context(), *req.RoleID); err != nil {
				if errors.Is(err, store.ErrRoleNotFound) {
					respondError(w, http.StatusBadRequest, "Role not found")
					return
				}
				lg.Errorw("role lookup failed", "error", err)
				respondError(w, http.StatusInternalServerError, "Internal error")
				return
			}
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			lg.Errorw("password hash failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		u := models.User{
			Username:           req.Username,
			PasswordHash:       hash,
			RoleID:             req.RoleID,
			IsActive:           true,
			MustChangePassword: true,
		}
		if err := users.Create(r.Context(), &u); err != nil {
			if errors.Is(err, store.ErrDuplicateUsername) {
				respondError(w, http.StatusBadRequest, "Username already exists")
				return
			}
			lg.Errorw("user create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, toUserResp(u))
	}
}

func ListUsers(users *store.UserStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := users.List(r.Context())
		if err != nil {
			lg.Errorw("user list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		out := make([]userResp, 0, len(all))
		for _, u := range all {
			out = append(out, toUserResp(u))
		}
		respondJSON(w, out)
	}
}

// UpdateCredentials changes a user's username and/or password. A password
// set by an admin for someone else flags must_change_password; a user
// changing their own clears it.
func UpdateCredentials(users *store.UserStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userId")
		var req struct {
			Username *string `json:"username"`
			Password *string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		u, err := users.ByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "User not found")
				return
			}
			lg.Errorw("user lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if req.Username != nil {
			name := strings.TrimSpace(*req.Username)
			if name == "" {
				respondError(w, http.StatusBadRequest, "Username cannot be empty")
				return
			}
			u.Username = name
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				lg.Errorw("password hash failed", "error", err)
				respondError(w, http.StatusInternalServerError, "Internal error")
				return
			}
			u.PasswordHash = hash
			u.MustChangePassword = auth.Subject(r.Context()) != u.ID
		}
		if err := users.Save(r.Context(), u); err != nil {
			lg.Errorw("user update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, toUserResp(*u))
	}
}

func UpdateUserRole(users *store.UserStore, roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userId")
		var req struct {
			RoleID uint `json:"role_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if _, err := roles.ByID(r.Context(), req.RoleID); err != nil {
			if errors.Is(err, store.ErrRoleNotFound) {
				respondError(w, http.StatusBadRequest, "Role not found")
				return
			}
			lg.Errorw("role lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		u, err := users.ByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "User not found")
				return
			}
			lg.Errorw("user lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		u.RoleID = &req.RoleID
		u.Role = nil
		if err := users.Save(r.Context(), u); err != nil {
			lg.Errorw("user role update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "Role updated"})
	}
}

// DeleteUser removes an account. Self-deletion is forbidden so an admin
// cannot lock themselves out mid-session.
func DeleteUser(users *store.UserStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userId")
		if auth.Subject(r.Context()) == id {
			respondError(w, http.StatusForbidden, "Cannot delete your own account")
			return
		}
		if err := users.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "User not found")
				return
			}
			lg.Errorw("user delete failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "User deleted"})
	}
}
