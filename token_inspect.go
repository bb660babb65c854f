package sdk

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiryWarning is the window before expiry in which the session is
// classified as expiring soon.
const DefaultExpiryWarning = 5 * time.Minute

// timeNow is time.Now but pulled out as a variable for tests.
var timeNow = time.Now

// Claims encodes the JWT claims embedded into dashboard session tokens.
//
// This is a DTO matching the server's session token contract. The SDK decodes
// it without verifying the signature; verification is the server's job.
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin,omitempty"`

	jwt.RegisteredClaims
}

// UserInfo is the identity subset exposed to SDK consumers.
type UserInfo struct {
	UserID  string
	Email   string
	IsAdmin bool
}

var unverifiedParser = jwt.NewParser()

func isJWTLikeToken(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	// JWTs have 3 base64url segments separated by '.'.
	return strings.Count(t, ".") == 2
}

// DecodeToken extracts the claims from a session token without verifying its
// signature. It returns nil for anything that does not decode cleanly (wrong
// segment count, bad base64, bad JSON) and never panics.
func DecodeToken(raw string) *Claims {
	t := strings.TrimSpace(raw)
	if !isJWTLikeToken(t) {
		return nil
	}
	claims := &Claims{}
	if _, _, err := unverifiedParser.ParseUnverified(t, claims); err != nil {
		return nil
	}
	return claims
}

// IsTokenExpired reports whether the token is past its expiry. Tokens that do
// not decode, or carry no expiry, count as expired so callers have a single
// branch for "treat as unauthenticated".
func IsTokenExpired(raw string) bool {
	claims := DecodeToken(raw)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(timeNow())
}

// IsTokenExpiringSoon reports whether the token expires within threshold.
// A non-positive threshold falls back to DefaultExpiryWarning. Undecodable
// tokens count as expiring.
func IsTokenExpiringSoon(raw string, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultExpiryWarning
	}
	claims := DecodeToken(raw)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(timeNow()) < threshold
}

// UserFromToken returns the identity asserted by the token, or nil when the
// token does not decode.
func UserFromToken(raw string) *UserInfo {
	claims := DecodeToken(raw)
	if claims == nil {
		return nil
	}
	return &UserInfo{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}
}
