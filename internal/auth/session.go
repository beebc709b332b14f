// Package auth verifies the platform's session tokens.
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jason-s-yu/pong/internal/config"
)

// CookieName is the cookie the platform stores the session token in.
const CookieName = "auth_token"

// ErrNoToken is returned when a request carries neither the cookie nor a bearer header.
var ErrNoToken = errors.New("no auth token")

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	tokenExpire time.Duration
)

// Init loads the key pair named by cfg, or generates an ephemeral one when no paths
// are set.
func Init(cfg config.Auth) error {
	tokenExpire = cfg.TokenExpire
	if cfg.PrivateKeyPath == "" || cfg.PublicKeyPath == "" {
		var err error
		publicKey, privateKey, err = ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
		}
		return nil
	}

	privateKeyData, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	return nil
}

// CreateJWT signs a token whose "sub" is the user seq. Used by tests and tooling; the
// platform's user service issues tokens in production.
func CreateJWT(userSeq int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userSeq, 10),
	}
	if tokenExpire > 0 {
		claims["exp"] = time.Now().Add(tokenExpire).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns the user seq in its "sub" claim.
func AuthenticateJWT(tokenString string) (int64, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	sub, err := t.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("missing sub in jwt")
	}
	userSeq, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userSeq <= 0 {
		return 0, fmt.Errorf("invalid sub %q in jwt", sub)
	}
	return userSeq, nil
}

// TokenFromRequest returns the session token from the auth cookie or, failing that,
// an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// AuthenticateRequest resolves the caller's user seq.
func AuthenticateRequest(r *http.Request) (int64, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return 0, err
	}
	return AuthenticateJWT(token)
}
