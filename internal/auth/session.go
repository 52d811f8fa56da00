// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sessions are ephemeral guest identities: a signed token in a cookie that
// keeps one browser tab mapped to one player id across lobby page loads.
// Keys are generated at startup, so restarting the process invalidates every
// session — rooms do not survive a restart either, so nothing is lost.

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
)

const cookieName = "guest_token"

// Init generates a fresh ed25519 key pair for token signing.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return nil
}

// CreateToken signs a guest token whose subject is the player id.
func CreateToken(playerID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": playerID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// ParseToken verifies a guest token and returns the player id.
func ParseToken(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse guest token: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid guest token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid guest token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("guest token missing sub")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed player id in token: %w", err)
	}
	return id, nil
}

// EnsureGuest returns the player id from the request's guest cookie, minting
// a new identity (and setting the cookie) when none is present or the token
// no longer verifies.
func EnsureGuest(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if c, err := r.Cookie(cookieName); err == nil {
		if id, err := ParseToken(c.Value); err == nil {
			return id, nil
		}
	}

	id := uuid.New()
	token, err := CreateToken(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("mint guest token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}
