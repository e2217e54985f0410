package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Права служебного API, которые выдаёт панель.
const (
	ScopeSettingsWrite = "settings:write"
	ScopeGuildsSync    = "guilds:sync"
)

// AdminClaims: токен, который панель подписывает своим RS256 ключом для вызова служебного API бота.
type AdminClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // "settings:write": true
	jwt.RegisteredClaims
}

func (c *AdminClaims) HasScope(scope string) bool {
	return c.Scopes["admin"] || c.Scopes[scope]
}
