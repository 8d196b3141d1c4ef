package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wanderplan/config"
)

var (
	// ErrUnauthorized means the token was missing, expired or rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// LocalUserID owns saved plans when no identity provider is configured.
const LocalUserID = "local"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// ─── Identity Client ──────────────────────────────────────────────────────────

// IdentityClient resolves bearer tokens against a hosted auth service
// exposing GET /auth/v1/user.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewIdentityClient(cfg config.IdentityConfig, logger *zap.Logger) *IdentityClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &IdentityClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	if logger != nil && c.baseURL == "" {
		logger.Info("AUTH_URL not set, saved plans are owned by the local user",
			zap.String("op", "services.NewIdentityClient"))
	}
	return c
}

// Configured reports whether tokens are verified remotely.
func (c *IdentityClient) Configured() bool {
	return c != nil && c.baseURL != ""
}

// CurrentUser returns the user the token belongs to. An empty token is always
// rejected; without a configured provider any other token maps to LocalUserID.
func (c *IdentityClient) CurrentUser(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}
	if !c.Configured() {
		return &User{ID: LocalUserID}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity error (%d): %s", resp.StatusCode, string(body))
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("parse identity response: %w", err)
	}
	if u.ID == "" {
		return nil, ErrUnauthorized
	}
	return &u, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
