package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crmcore/internal/config"
)

// LoginRateLimit is a fixed-window counter per client IP, backed by redis
// so the window survives restarts and is shared across replicas. With no
// redis client configured the middleware is a pass-through. On a redis
// error the request is allowed: the limiter protects against brute force,
// it must not turn a cache outage into a login outage.
func LoginRateLimit(rdb *redis.Client, cfg config.Config, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	if rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := fmt.Sprintf("rl:login:%s", ip)

			ctx := r.Context()
			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				lg.Warnw("rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(ctx, key, cfg.LoginRateWindow)
			}
			if count > int64(cfg.LoginRateLimit) {
				ttl, _ := rdb.TTL(ctx, key).Result()
				if ttl > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"Too many login attempts"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
