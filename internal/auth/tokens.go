// Package auth manages the credentials the gateway presents to the backend.
// The gateway authenticates outbound (to the backend); inbound webhook
// authentication is signature-based and lives in internal/telephony.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const refreshPath = "/auth/refresh/"

// TokenSource holds the backend access/refresh token pair. Access keys may
// be opaque static keys (which never expire) or JWTs, in which case the exp
// claim drives refresh.
type TokenSource struct {
	mu      sync.Mutex
	access  string
	refresh string
	baseURL string
	client  *http.Client
}

func NewTokenSource(access, refresh, baseURL string) *TokenSource {
	return &TokenSource{
		access:  access,
		refresh: refresh,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Bearer returns the Authorization header value for the current access key.
func (s *TokenSource) Bearer(ctx context.Context, now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiredLocked(now) && s.refresh != "" {
		// Best effort; a stale token is still sent and the backend's 401
		// becomes the Forwarder's result value.
		_ = s.refreshLocked(ctx)
	}

	access := s.access
	if access == "" {
		access = "Test"
	}
	return "Bearer " + access
}

// Expired reports whether the access token is a JWT whose exp has passed.
// Opaque (non-JWT) keys never expire.
func (s *TokenSource) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredLocked(now)
}

func (s *TokenSource) expiredLocked(now time.Time) bool {
	if s.access == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.access, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

// Refresh exchanges the refresh token for a new pair.
func (s *TokenSource) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *TokenSource) refreshLocked(ctx context.Context) error {
	payload, err := json.Marshal(refreshRequest{Refresh: s.refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("auth: refresh rejected with status %d", resp.StatusCode)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("auth: decode refresh response: %w", err)
	}
	if out.Tokens.Access == "" {
		return fmt.Errorf("auth: refresh response carried no access token")
	}

	s.access = out.Tokens.Access
	if out.Tokens.Refresh != "" {
		s.refresh = out.Tokens.Refresh
	}
	return nil
}
