package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return s
}

func TestBearerDefaultsWhenEmpty(t *testing.T) {
	s := NewTokenSource("", "", "https://backend")
	if got := s.Bearer(context.Background(), time.Now()); got != "Bearer Test" {
		t.Fatalf("expected placeholder bearer, got %q", got)
	}
}

func TestExpiredOpaqueKeyNeverExpires(t *testing.T) {
	s := NewTokenSource("static-api-key", "", "https://backend")
	if s.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("opaque keys must not expire")
	}
}

func TestExpiredJWT(t *testing.T) {
	now := time.Now()
	s := NewTokenSource(signedToken(t, now.Add(time.Hour)), "", "https://backend")
	if s.Expired(now) {
		t.Fatalf("expected live token")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("expected expired token")
	}
}

func TestRefreshSwapsPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != refreshPath {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("expected json body, got %v", err)
		}
		if body["refresh"] != "old-refresh" {
			t.Fatalf("expected refresh token in body, got %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":{"access":"new-access","refresh":"new-refresh"}}`))
	}))
	defer srv.Close()

	s := NewTokenSource("old-access", "old-refresh", srv.URL)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := s.Bearer(context.Background(), time.Now()); got != "Bearer new-access" {
		t.Fatalf("expected refreshed bearer, got %q", got)
	}
}

func TestRefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewTokenSource("a", "r", srv.URL)
	err := s.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBearerRefreshesExpiredJWT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":{"access":"fresh"}}`))
	}))
	defer srv.Close()

	s := NewTokenSource(signedToken(t, time.Now().Add(-time.Hour)), "r", srv.URL)
	if got := s.Bearer(context.Background(), time.Now()); got != "Bearer fresh" {
		t.Fatalf("expected refreshed bearer, got %q", got)
	}
}
