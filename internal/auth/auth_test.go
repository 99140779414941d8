package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyRoundTrip(t *testing.T) {
	v, err := NewVerifier("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	tok, err := v.Token("driver-1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := v.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.DriverID != "driver-1" {
		t.Fatalf("got %q", claims.DriverID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v1, _ := NewVerifier("secret-a")
	v2, _ := NewVerifier("secret-b")
	tok, _ := v1.Token("driver-1")
	if _, err := v2.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	v, _ := NewVerifier("test-secret")
	var seen string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DriverID(r.Context())
	}))

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// valid token
	tok, _ := v.Token("driver-1")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "driver-1" {
		t.Fatalf("code=%d driver=%q", rec.Code, seen)
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Fatal("empty secret accepted")
	}
}
