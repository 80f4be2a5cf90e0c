package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"agentmemory/pkg/auth"

	"go.uber.org/zap"
)

// Authenticate creates an authentication middleware that checks every
// request's bearer token against apiKey. The daemon has a single shared
// credential rather than per-caller identity, so there is no JWT/claims
// machinery here — just a constant-time-adjacent equality check plus
// IP and key-scoped rate limiting.
//
// When apiKey is empty (no MEMORY_API_KEY configured) the middleware
// still rate-limits but skips the credential check, matching a local/dev
// daemon with no operator-facing secret.
func Authenticate(apiKey string, logger *zap.Logger) func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(100)
	keyLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := ipLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Error("rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "missing authentication token")
				return
			}
			if token != apiKey {
				logger.Warn("rejected request with invalid API key",
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				respondUnauthorized(w, "invalid API key")
				return
			}

			allowed, err = keyLimiter.Allow(r.Context(), token)
			if err != nil {
				logger.Error("rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return authHeader
}

// getClientIP extracts the client IP address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}
