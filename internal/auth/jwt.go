package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crmcore/internal/config"
)

// ErrInvalidToken covers bad signature, malformed token and expiry alike;
// callers map it to 401 without distinguishing the cause.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is what a verified access token carries: the user id and the
// role id captured at issue time.
type AccessClaims struct {
	UserID string
	RoleID *uint
}

// Tokens signs and verifies both token classes. Access and refresh tokens
// use separate secrets so one leaked key cannot forge the other class.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokens(cfg config.Config) *Tokens {
	return &Tokens{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

func (t *Tokens) AccessTTL() time.Duration  { return t.accessTTL }
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// Access issues a short-lived token carrying sub and role_id.
func (t *Tokens) Access(userID string, roleID *uint) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.accessTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	if roleID != nil {
		claims["role_id"] = *roleID
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Refresh issues a longer-lived token carrying only sub. The raw string is
// handed to the client; the session store keeps a one-way hash of it.
func (t *Tokens) Refresh(userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.refreshTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *Tokens) VerifyAccess(tokenStr string) (AccessClaims, error) {
	mapc, err := verify(tokenStr, t.accessSecret)
	if err != nil {
		return AccessClaims{}, err
	}
	sub, _ := mapc["sub"].(string)
	if sub == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	out := AccessClaims{UserID: sub}
	if v, ok := mapc["role_id"].(float64); ok {
		id := uint(v)
		out.RoleID = &id
	}
	return out, nil
}

// VerifyRefresh returns the subject user id of a valid refresh token.
func (t *Tokens) VerifyRefresh(tokenStr string) (string, error) {
	mapc, err := verify(tokenStr, t.refreshSecret)
	if err != nil {
		return "", err
	}
	sub, _ := mapc["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func verify(tokenStr string, key []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return mapc, nil
}
