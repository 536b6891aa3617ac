package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, "datadict", time.Hour)

	token, err := svc.GenerateToken("alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "datadict", claims.Issuer)

	_, err = svc.GenerateToken("")
	assert.Error(t, err)
}

func TestTokenService_Rejections(t *testing.T) {
	svc := NewTokenService(testSecret, "datadict", time.Hour)
	token, err := svc.GenerateToken("alice")
	require.NoError(t, err)

	other := NewTokenService("another-secret-another-secret", "datadict", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	foreign := NewTokenService(testSecret, "someone-else", time.Hour)
	_, err = foreign.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")

	later := NewTokenService(testSecret, "datadict", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewTokenService(testSecret, "datadict", time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "mallory",
		Issuer:    "datadict",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
