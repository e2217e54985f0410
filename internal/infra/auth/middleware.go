package auth

import (
	"context"
	"net/http"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"go.uber.org/zap"
)

type ctxKey string

const claimsKey ctxKey = "admin_claims"

// TokenValidator: то, что нужно middleware от валидатора.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.AdminClaims, error)
}

// NewMiddleware пропускает только запросы с валидным токеном панели.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// RequireScope: проверка конкретного права поверх NewMiddleware.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok || !claims.HasScope(scope) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFrom(ctx context.Context) (*domain.AdminClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*domain.AdminClaims)
	return claims, ok
}
