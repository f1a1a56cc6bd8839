package auth

import (
	"strings"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewTokenService(t *testing.T) {
	svc, err := NewTokenService("jwt", testSecret)
	require.NoError(t, err)
	assert.IsType(t, &JWTService{}, svc)

	svc, err = NewTokenService("paseto", testSecret)
	require.NoError(t, err)
	assert.IsType(t, &PasetoService{}, svc)

	_, err = NewTokenService("jwt", []byte("short"))
	assert.Error(t, err)

	_, err = NewTokenService("paseto", append(testSecret, 'x'))
	assert.Error(t, err)

	_, err = NewTokenService("macaroon", testSecret)
	assert.Error(t, err)
}

func TestTokenServices_RoundTrip(t *testing.T) {
	for _, format := range []string{"jwt", "paseto"} {
		t.Run(format, func(t *testing.T) {
			svc, err := NewTokenService(format, testSecret)
			require.NoError(t, err)

			before := time.Now().Add(-time.Second)
			token, err := svc.CreateToken("user-123", "a@b.com", TokenDuration)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotContains(t, token, string(testSecret))

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, "user-123", claims.UserID)
			assert.Equal(t, "a@b.com", claims.Email)
			assert.WithinDuration(t, before.Add(TokenDuration), claims.ExpiresAt, 5*time.Second)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
		})
	}
}

func TestTokenServices_RejectExpired(t *testing.T) {
	for _, format := range []string{"jwt", "paseto"} {
		t.Run(format, func(t *testing.T) {
			svc, err := NewTokenService(format, testSecret)
			require.NoError(t, err)

			token, err := svc.CreateToken("user-123", "a@b.com", -time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenServices_RejectForeignKey(t *testing.T) {
	other := []byte(strings.Repeat("z", 32))

	for _, format := range []string{"jwt", "paseto"} {
		t.Run(format, func(t *testing.T) {
			issuer, err := NewTokenService(format, other)
			require.NoError(t, err)
			verifier, err := NewTokenService(format, testSecret)
			require.NoError(t, err)

			token, err := issuer.CreateToken("user-123", "a@b.com", time.Hour)
			require.NoError(t, err)

			_, err = verifier.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = verifier.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTService_ExpiredIsDistinct(t *testing.T) {
	svc, err := NewJWTService(testSecret)
	require.NoError(t, err)

	token, err := svc.CreateToken("u", "e@x.io", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc, err := NewJWTService(testSecret)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService(testSecret[:PasetoKeyLength-1])
	assert.ErrorContains(t, err, "exactly 32 bytes")

	_, err = NewPasetoService(append(testSecret, 'x'))
	assert.Error(t, err)
}

func TestPasetoService_ExpiryUsesServiceClock(t *testing.T) {
	svc, err := NewPasetoService(testSecret)
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.CreateToken("user-1", "a@b.com", TokenDuration)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(TokenDuration - time.Second) }
	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.True(t, issued.Equal(claims.IssuedAt))
	assert.True(t, issued.Add(TokenDuration).Equal(claims.ExpiresAt))

	svc.now = func() time.Time { return issued.Add(TokenDuration) }
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_RejectsTokensFromOtherIssuers(t *testing.T) {
	svc, err := NewPasetoService(testSecret)
	require.NoError(t, err)
	key, err := paseto.V4SymmetricKeyFromBytes(testSecret)
	require.NoError(t, err)

	mint := func(issuer string, implicit []byte) string {
		tok := paseto.NewToken()
		tok.SetIssuer(issuer)
		tok.SetSubject("user-1")
		tok.SetIssuedAt(time.Now())
		tok.SetExpiration(time.Now().Add(time.Hour))
		tok.SetString("email", "a@b.com")
		return tok.V4Encrypt(key, implicit)
	}

	_, err = svc.VerifyToken(mint(pasetoIssuer, pasetoImplicit))
	require.NoError(t, err)

	_, err = svc.VerifyToken(mint("someone-else", pasetoImplicit))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyToken(mint(pasetoIssuer, nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
