package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"buildbid/internal/model"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// Claims carries the authenticated identity. UserID is kept as the raw claim so callers
// decide how to report a malformed id.
type Claims struct {
	UserID string
	Role   model.Role
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, expiryHours int) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(expiryHours) * time.Hour,
	}
}

func (m *TokenManager) GenerateToken(userID string, role model.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	return ParseToken(tokenStr, m.secret)
}

// ParseToken validates signature and expiry and extracts the identity claims.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidClaims
	}
	role, _ := claims["role"].(string)

	return &Claims{UserID: userID, Role: model.Role(role)}, nil
}
