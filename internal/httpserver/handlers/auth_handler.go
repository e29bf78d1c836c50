package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"crmcore/internal/auth"
	"crmcore/internal/config"
	"crmcore/internal/store"
)

const refreshCookieName = "refreshToken"

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func setRefreshCookie(w http.ResponseWriter, cfg config.Config, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter, cfg config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login verifies credentials, issues both tokens and records the refresh
// session. Unknown username and wrong password produce the identical
// response; a found-but-disabled account is reported separately.
func Login(users *store.UserStore, sessions *store.SessionStore, tk *auth.Tokens, cfg config.Config, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		u, err := users.ByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			lg.Errorw("login lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !u.IsActive {
			respondError(w, http.StatusForbidden, "Account is disabled")
			return
		}

		access, _, err := tk.Access(u.ID, u.RoleID)
		if err != nil {
			lg.Errorw("access token issue failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		refresh, refreshExp, err := tk.Refresh(u.ID)
		if err != nil {
			lg.Errorw("refresh token issue failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if err := sessions.Record(r.Context(), u.ID, refresh, refreshExp); err != nil {
			lg.Errorw("session record failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		setRefreshCookie(w, cfg, refresh, refreshExp)
		lg.Infow("login", "user_id", u.ID)
		respondJSON(w, map[string]any{
			"accessToken":        access,
			"username":           u.Username,
			"mustChangePassword": u.MustChangePassword,
		})
	}
}

// Refresh exchanges a valid refresh cookie for a new access token carrying
// the user's current role. The refresh session is not rotated or touched;
// the store's revocation state is authoritative even while the signed token
// itself still verifies.
func Refresh(users *store.UserStore, sessions *store.SessionStore, tk *auth.Tokens, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "Missing refresh token")
			return
		}
		sub, err := tk.VerifyRefresh(cookie.Value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		rows, err := sessions.ActiveFor(r.Context(), sub)
		if err != nil {
			lg.Errorw("session lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if sessions.Match(cookie.Value, rows) == nil {
			respondError(w, http.StatusUnauthorized, "Refresh token not recognized")
			return
		}

		u, err := users.ByID(r.Context(), sub)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "Refresh token not recognized")
				return
			}
			lg.Errorw("user lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if !u.IsActive {
			respondError(w, http.StatusForbidden, "Account is disabled")
			return
		}

		access, _, err := tk.Access(u.ID, u.RoleID)
		if err != nil {
			lg.Errorw("access token issue failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]any{"accessToken": access})
	}
}

// Logout revokes every refresh session of the subject and clears the
// cookie. It never fails visibly: a missing, expired or garbage token
// still gets a cleared cookie and a 200.
func Logout(sessions *store.SessionStore, tk *auth.Tokens, cfg config.Config, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
			if sub, err := tk.VerifyRefresh(cookie.Value); err == nil {
				if err := sessions.RevokeAllFor(r.Context(), sub); err != nil {
					lg.Errorw("session revoke failed", "error", err)
				}
			}
		}
		clearRefreshCookie(w, cfg)
		respondJSON(w, map[string]string{"message": "Logged out"})
	}
}
