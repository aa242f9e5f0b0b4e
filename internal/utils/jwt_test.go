package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func testClaims() Claims {
	return Claims{
		UserID:     42,
		Username:   "kenji",
		Email:      "kenji@example.com",
		IsSensei:   true,
		IsVerified: true,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testClaims(), 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), tok.Exp, 5*time.Second)

	got, err := VerifyToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.UserID)
	assert.Equal(t, "kenji", got.Username)
	assert.Equal(t, "kenji@example.com", got.Email)
	assert.True(t, got.IsSensei)
	assert.True(t, got.IsVerified)
}

func TestVerifyToken_Expired(t *testing.T) {
	// Sign a token whose expiry is already one second in the past.
	claims := testClaims()
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testClaims(), 60)
	require.NoError(t, err)

	_, err = VerifyToken("another-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := VerifyToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetToken_SubjectScoped(t *testing.T) {
	tok, err := NewResetToken(testSecret, testClaims(), 15)
	require.NoError(t, err)

	got, err := VerifyToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, SubjectPasswordReset, got.Subject)

	// Session tokens carry no subject, so the two kinds stay distinct.
	access, err := NewAccessToken(testSecret, testClaims(), 60)
	require.NoError(t, err)
	sess, err := VerifyToken(testSecret, access.Token)
	require.NoError(t, err)
	assert.Empty(t, sess.Subject)
}

func TestRefreshToken_LongLived(t *testing.T) {
	tok, err := NewRefreshToken(testSecret, testClaims(), 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*24*time.Hour), tok.Exp, 5*time.Second)

	got, err := VerifyToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.UserID)
}
