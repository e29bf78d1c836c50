package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the process reads from the environment.
// Secrets and bootstrap credentials are required; Load fails without them
// so the server never starts half-configured.
type Config struct {
	HTTPPort    string
	DatabaseURL string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	SuperAdminUsername string
	SuperAdminPassword string

	SecureCookies bool

	RedisAddr       string
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           envStr("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AccessSecret:       os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret:      os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTTL:          envDur("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:         envDur("REFRESH_TOKEN_TTL", 72*time.Hour),
		SuperAdminUsername: os.Getenv("SUPERADMIN_USERNAME"),
		SuperAdminPassword: os.Getenv("SUPERADMIN_PASSWORD"),
		SecureCookies:      envBool("SECURE_COOKIES", false),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		LoginRateLimit:     envInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:    envDur("LOGIN_RATE_WINDOW", time.Minute),
	}
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"ACCESS_TOKEN_SECRET", cfg.AccessSecret},
		{"REFRESH_TOKEN_SECRET", cfg.RefreshSecret},
		{"SUPERADMIN_USERNAME", cfg.SuperAdminUsername},
		{"SUPERADMIN_PASSWORD", cfg.SuperAdminPassword},
	} {
		if req.val == "" {
			return Config{}, fmt.Errorf("config: %s is required", req.key)
		}
	}
	if cfg.LoginRateLimit < 1 {
		cfg.LoginRateLimit = 1
	}
	if cfg.LoginRateWindow <= 0 {
		cfg.LoginRateWindow = time.Minute
	}
	return cfg, nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}
