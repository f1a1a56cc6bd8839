package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoKeyLength is the exact symmetric key size for v4.local.
const PasetoKeyLength = 32

const (
	pasetoIssuer = "trailpass"
	emailClaim   = "email"
)

// pasetoImplicit binds tokens to this service. It is authenticated but never
// transmitted, so a v4.local token minted elsewhere with the same key fails.
var pasetoImplicit = []byte("trailpass:bearer:v1")

// PasetoService issues PASETO v4.local bearer tokens.
type PasetoService struct {
	key paseto.V4SymmetricKey
	now func() time.Time
}

func NewPasetoService(secret []byte) (*PasetoService, error) {
	if len(secret) != PasetoKeyLength {
		return nil, fmt.Errorf("paseto key must be exactly %d bytes, got %d", PasetoKeyLength, len(secret))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{key: key, now: time.Now}, nil
}

func (s *PasetoService) CreateToken(userID string, email string, duration time.Duration) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(pasetoIssuer)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(duration))
	if err := token.Set(emailClaim, email); err != nil {
		return "", fmt.Errorf("failed to set email claim: %w", err)
	}

	return token.V4Encrypt(s.key, pasetoImplicit), nil
}

// VerifyToken decrypts tokenStr and checks its issuer and lifetime against
// the service clock.
func (s *PasetoService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(pasetoIssuer))

	token, err := parser.ParseV4Local(s.key, tokenStr, pasetoImplicit)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	claims := &TokenClaims{ExpiresAt: expiresAt}
	if claims.UserID, err = token.GetSubject(); err != nil || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Email, err = token.GetString(emailClaim); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt, err = token.GetIssuedAt(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
