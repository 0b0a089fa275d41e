// Package security issues and verifies bearer tokens and password hashes.
package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken indicates a token that failed verification.
var ErrInvalidToken = errors.New("security: invalid token")

// UserClaims carries the authenticated user identity.
type UserClaims struct {
	UserID  uint64
	IsAdmin bool
}

// tokenClaims is the JWT payload layout.
type tokenClaims struct {
	IsAdmin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// IssueUserToken signs a bearer token for the user.
func IssueUserToken(secret string, expiry time.Duration, userID uint64, isAdmin bool) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("security: empty jwt secret")
	}
	now := time.Now().UTC()
	claims := tokenClaims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseUserToken verifies a bearer token and returns its claims.
func ParseUserToken(secret, raw string) (UserClaims, error) {
	var claims tokenClaims
	token, errParse := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil || !token.Valid {
		return UserClaims{}, ErrInvalidToken
	}
	userID, errID := strconv.ParseUint(claims.Subject, 10, 64)
	if errID != nil || userID == 0 {
		return UserClaims{}, ErrInvalidToken
	}
	return UserClaims{UserID: userID, IsAdmin: claims.IsAdmin}, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	hashed, errHash := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if errHash != nil {
		return "", fmt.Errorf("security: hash password: %w", errHash)
	}
	return string(hashed), nil
}

// VerifyPassword compares a stored hash against a plaintext candidate.
func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
