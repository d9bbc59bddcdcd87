package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// RefreshCookie is the cookie carrying the opaque refresh token.
const (
	RefreshCookie     = "refresh_token"
	RefreshCookiePath = "/api/auth/refresh"
)

// NewRefreshToken returns a random opaque token. Only its hash is stored.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
