package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"credit-engine/internal/config"
)

const rateLimitKeyPrefix = "credit-engine:ratelimit:"

// RateLimiterMiddleware is a fixed-window per-IP limiter backed by
// Redis so the limit holds across replicas. Redis failures fail open:
// throttling is protection, not correctness.
type RateLimiterMiddleware struct {
	redisClient *redis.Client
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RateLimiterMiddleware {
	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case redisClient == nil:
		logger.Warn("Rate limiting enabled but no Redis client provided; disabling.")
		cfg.Enabled = false
	default:
		logger.Info("Rate limiter configured", "rps", cfg.RPS, "window", time.Second)
	}

	return &RateLimiterMiddleware{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger.With("component", "rateLimiter"),
		window:      time.Second,
	}
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled && rl.redisClient != nil
}

func (rl *RateLimiterMiddleware) GetConfig() config.RateLimitConfig {
	return rl.cfg
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if ip == "unknown" {
			rl.logger.Error("Blocking request with undeterminable client IP")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if rl.allow(r.Context(), ip) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"message": fmt.Sprintf("Rate limit exceeded. Limit is %.0f requests per %v.", rl.cfg.RPS, rl.window),
			},
		})
	})
}

// allow counts the request against the caller's current window. Any
// Redis error admits the request.
func (rl *RateLimiterMiddleware) allow(ctx context.Context, ip string) bool {
	key := rateLimitKeyPrefix + ip

	pipe := rl.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Error("Redis pipeline failed during rate limit check", "error", err, "key", key)
		return true
	}

	count, err := incrCmd.Result()
	if err != nil {
		rl.logger.Error("Failed to read INCR result", "error", err, "key", key)
		return true
	}

	// A key without an expiry is either brand new or survived a Redis
	// restart; (re)arm the window either way.
	if ttl, err := ttlCmd.Result(); err != nil || ttl < 0 {
		if expireErr := rl.redisClient.Expire(ctx, key, rl.window).Err(); expireErr != nil {
			rl.logger.Error("Failed to arm rate limit window", "error", expireErr, "key", key)
		}
	}

	if count > int64(rl.cfg.RPS) {
		rl.logger.Warn("Rate limit exceeded", "ip", ip, "count", count, "limit", rl.cfg.RPS)
		return false
	}
	return true
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
		return parsed.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr)
	return "unknown"
}
