package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Validator проверяет RS256 токены панели. Приватного ключа у бота нет:
// выпускать токены он не умеет, только проверять.
type Validator struct {
	publicKey *rsa.PublicKey
	issuer    string
}

func NewValidator(pubKey *rsa.PublicKey, issuer string) *Validator {
	return &Validator{publicKey: pubKey, issuer: issuer}
}

// VerifyToken принимает значение заголовка Authorization (с префиксом Bearer или без).
func (v *Validator) VerifyToken(tokenStr string) (*domain.AdminClaims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &domain.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*domain.AdminClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// ParseRSAPublicKey превращает PEM в ключ для проверки подписи.
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, errors.New("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}
