/*
auth.go - Token issuing and request authentication

PURPOSE:
  Issues signed JWTs at login and verifies them on protected routes.
  Passwords are stored as bcrypt hashes; the plaintext never leaves
  the login handler.

SEE ALSO:
  - server.go: Mounts RequireAuth on the protected route group
  - handlers.go: Login handler
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/staffing-engine/engine"
)

// tokenTTL bounds how long a login stays valid.
const tokenTTL = 24 * time.Hour

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from the token.
type Identity struct {
	UserID engine.UserID
	Role   engine.UserRole
}

// IdentityFrom returns the caller identity, if the request was
// authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Auth holds the signing secret.
type Auth struct {
	Secret []byte
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the user.
func (a *Auth) IssueToken(u engine.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	return token.SignedString(a.Secret)
}

// VerifyToken parses and validates a token, returning the identity.
func (a *Auth) VerifyToken(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID: engine.UserID(c.Subject),
		Role:   engine.UserRole(c.Role),
	}, nil
}

// CheckPassword compares a plaintext password against a stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RequireAuth rejects requests without a valid Bearer token and stores
// the caller identity on the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		identity, err := a.VerifyToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token", err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
