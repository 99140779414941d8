// Package auth validates the bearer tokens issued by the platform's auth
// service. Tokens are verified here, never minted, except for a test/dev
// helper.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload the auth service issues to drivers.
type Claims struct {
	DriverID string `json:"driver_id"`
	jwt.RegisteredClaims
}

type ctxKey string

const claimsKey ctxKey = "auth-claims"

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier checks HS256 bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.DriverID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		claims, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// DriverID returns the authenticated driver id, or "" when the request was
// not authenticated.
func DriverID(ctx context.Context) string {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c.DriverID
	}
	return ""
}

// Token signs a short-lived token for the driver. Dev and test use only.
func (v *Verifier) Token(driverID string) (string, error) {
	claims := Claims{
		DriverID: driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   driverID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
