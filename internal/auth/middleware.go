package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"crmcore/internal/models"
)

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// JWTAuth verifies the bearer access token and attaches the caller identity
// to the request context.
func JWTAuth(tk *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				deny(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			claims, err := tk.VerifyAccess(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				deny(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			id := Identity{UserID: claims.UserID, RoleID: claims.RoleID}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequirePermission gates a route behind one permission code. Decisions are
// made against the live role_permissions table, never against cached state,
// so a revoked permission takes effect on the next request. Fails closed:
// no role means no access, and a store error is a 500, never an allow.
func RequirePermission(db *gorm.DB, code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id.RoleID == nil {
				deny(w, http.StatusForbidden, "No permission")
				return
			}
			var count int64
			err := db.WithContext(r.Context()).
				Model(&models.RolePermission{}).
				Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
				Where("role_permissions.role_id = ? AND permissions.code = ?", *id.RoleID, code).
				Count(&count).Error
			if err != nil {
				deny(w, http.StatusInternalServerError, "Internal error")
				return
			}
			if count == 0 {
				deny(w, http.StatusForbidden, "No permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
