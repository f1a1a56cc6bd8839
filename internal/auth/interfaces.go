package auth

import (
	"errors"
	"fmt"
	"time"
)

// TokenDuration is the lifetime of every issued bearer token.
const TokenDuration = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims is what a verified bearer token asserts about its holder.
type TokenClaims struct {
	UserID    string    `json:"sub"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID string, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// PasswordHasher turns plaintext passwords into salted digests and checks
// them. Implementations include BcryptHasher and Argon2Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// NewTokenService returns the token service for the given format.
func NewTokenService(format string, secret []byte) (TokenService, error) {
	switch format {
	case "", "jwt":
		svc, err := NewJWTService(secret)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "paseto":
		svc, err := NewPasetoService(secret)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}
