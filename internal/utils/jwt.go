package utils // package utils provides helpers for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrExpiredToken is returned by VerifyToken when the token's embedded
// expiry has passed.  Callers distinguish this from ErrInvalidToken because
// an expired access token can still be renewed from a live refresh token.
var ErrExpiredToken = errors.New("token expired")

// ErrInvalidToken is returned for signature or format failures.
var ErrInvalidToken = errors.New("token invalid")

// Claims is the typed identity payload embedded in both access and refresh
// tokens.  Tokens are self-contained: validating one never touches the
// database.
type Claims struct {
	UserID     uint64 `json:"user_id"`
	Username   string `json:"user_name"`
	Email      string `json:"email"`
	IsSensei   bool   `json:"is_sensei"`
	IsVerified bool   `json:"is_verified"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its UTC expiration time so
// handlers can set cookie max-age to match.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SubjectPasswordReset marks a token minted for the reset-password flow
// only.  Session middleware refuses these as session credentials.
const SubjectPasswordReset = "password-reset"

// NewAccessToken builds and signs a short-lived HS256 JWT carrying the
// given identity claims.  ttlMin is the time-to-live in minutes.
func NewAccessToken(secret string, claims Claims, ttlMin int) (SignedToken, error) {
	return sign(secret, claims, time.Duration(ttlMin)*time.Minute, "")
}

// NewRefreshToken signs a long-lived HS256 JWT with the same claims shape.
// ttlDays is the time-to-live in days.  There is no server-side revocation
// list; a refresh token stays valid until its embedded expiry.
func NewRefreshToken(secret string, claims Claims, ttlDays int) (SignedToken, error) {
	return sign(secret, claims, time.Duration(ttlDays)*24*time.Hour, "")
}

// NewResetToken signs a short-lived token scoped to the password-reset
// flow.  The subject claim keeps it from doubling as a session token.
func NewResetToken(secret string, claims Claims, ttlMin int) (SignedToken, error) {
	return sign(secret, claims, time.Duration(ttlMin)*time.Minute, SubjectPasswordReset)
}

func sign(secret string, claims Claims, ttl time.Duration, subject string) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a signed token, returning its claims.
// Fails with ErrExpiredToken past expiry and ErrInvalidToken for anything
// else (bad signature, wrong algorithm, malformed payload).
func VerifyToken(secret, raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
