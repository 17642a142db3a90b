package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"credit-engine/internal/config"
)

// AuthMiddleware guards the API group with HS256 bearer tokens issued
// by the /auth/token endpoint. When auth is disabled in configuration
// the chain passes through untouched.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(_ *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				logger.Warn("Rejected unauthenticated request", slog.String("path", r.URL.Path), slog.Any("error", err))
				unauthorized(w)
				return
			}

			token, err := parser.Parse(tokenString, keyFunc)
			if err != nil || !token.Valid {
				logger.Warn("Rejected request with invalid token", slog.String("path", r.URL.Path), slog.Any("error", err))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("Authorization header is not a bearer token")
	}
	return parts[1], nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"message":"Unauthorized"}}`))
}
