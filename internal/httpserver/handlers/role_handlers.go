package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"crmcore/internal/auth"
	"crmcore/internal/store"
)

func CreateRole(roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Role name is required")
			return
		}
		role, err := roles.Create(r.Context(), req.Name)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateRole) {
				respondError(w, http.StatusBadRequest, "Role already exists")
				return
			}
			lg.Errorw("role create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, role)
	}
}

func ListRoles(roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := roles.List(r.Context())
		if err != nil {
			lg.Errorw("role list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, out)
	}
}

func GetRole(roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "roleId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid role id")
			return
		}
		role, err := roles.ByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrRoleNotFound) {
				respondError(w, http.StatusNotFound, "Role not found")
				return
			}
			lg.Errorw("role get failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, role)
	}
}

// AssignPermissions replaces a role's entire permission set. Unknown ids
// reject the call as a whole and report which ids were invalid.
func AssignPermissions(roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, ok := uintParam(r, "roleId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid role id")
			return
		}
		var req struct {
			Permissions []uint `json:"permissions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		err := roles.ReplacePermissions(r.Context(), roleID, req.Permissions)
		if err != nil {
			var invalid *store.InvalidPermissionsError
			switch {
			case errors.Is(err, store.ErrRoleNotFound):
				respondError(w, http.StatusNotFound, "Role not found")
			case errors.As(err, &invalid):
				respondStatus(w, http.StatusBadRequest, map[string]any{
					"message":            "Some permissions do not exist",
					"missingPermissions": invalid.Missing,
				})
			default:
				lg.Errorw("permission assignment failed", "role_id", roleID, "error", err)
				respondError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}
		respondJSON(w, map[string]string{"message": "Permissions updated"})
	}
}

// DeleteRole enforces the deletion guards: the super-admin role and the
// caller's own role are forbidden, and any other holder blocks deletion
// until those users are reassigned.
func DeleteRole(roles *store.RoleStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, ok := uintParam(r, "roleId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid role id")
			return
		}
		actingUser := auth.Subject(r.Context())
		err := roles.Delete(r.Context(), roleID, actingUser)
		if err != nil {
			var inUse *store.RoleInUseError
			switch {
			case errors.Is(err, store.ErrRoleNotFound):
				respondError(w, http.StatusNotFound, "Role not found")
			case errors.Is(err, store.ErrProtectedRole):
				respondError(w, http.StatusForbidden, "This role cannot be deleted")
			case errors.Is(err, store.ErrOwnRole):
				respondError(w, http.StatusForbidden, "Cannot delete your own role")
			case errors.As(err, &inUse):
				respondStatus(w, http.StatusBadRequest, map[string]any{
					"message": "Role is assigned to users",
					"assignedUsers": map[string]any{
						"count":     len(inUse.Usernames),
						"userIds":   inUse.UserIDs,
						"usernames": inUse.Usernames,
					},
				})
			default:
				lg.Errorw("role delete failed", "role_id", roleID, "error", err)
				respondError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}
		respondJSON(w, map[string]string{"message": "Role deleted"})
	}
}

func ListPermissions(perms *store.PermissionStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := perms.List(r.Context())
		if err != nil {
			lg.Errorw("permission list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, out)
	}
}

func uintParam(r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
