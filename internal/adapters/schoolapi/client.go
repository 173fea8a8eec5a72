package schoolapi

// Package schoolapi is the HTTP client for the school records backend. It
// owns the legacy form-login flow and the two identity-related fetches the
// resolution engine consumes. Payloads are decoded as opaque JSON: the
// backend's shapes are not this client's business.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/escuelahq/escuela-ui-api/internal/ports"
)

// Config holds the backend endpoint layout.
type Config struct {
	BaseURL         string
	LoginPath       string        // default /api/auth/login
	LogoutPath      string        // default /api/auth/logout
	IdentityPath    string        // default /api/me
	PermissionsPath string        // default /api/me/permisos
	Timeout         time.Duration // default 10s
}

// Client talks to the school records backend. One Client is shared by all
// sessions; per-session state is the opaque bearer token carried by the
// IdentitySource views it hands out. The cookie jar picks up auxiliary
// cookies (CSRF, affinity) some backend deployments set during login.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ ports.BackendAuthenticator = (*Client)(nil)

// NewClient constructs a Client from Config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("school api: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("school api: parse base URL: %w", err)
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/api/auth/login"
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = "/api/auth/logout"
	}
	if cfg.IdentityPath == "" {
		cfg.IdentityPath = "/api/me"
	}
	if cfg.PermissionsPath == "" {
		cfg.PermissionsPath = "/api/me/permisos"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("school api: cookie jar: %w", err)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Jar: jar},
	}, nil
}

// loginResponse is the minimal slice of the login response we rely on.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Login posts form-encoded credentials and returns the backend token.
// Failures propagate uninterpreted; callers decide presentation.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.LoginPath),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("login failed: backend returned %d", resp.StatusCode)
	}

	var lr loginResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&lr); decodeErr != nil {
		return "", fmt.Errorf("decode login response: %w", decodeErr)
	}
	token := lr.Token
	if token == "" {
		token = lr.AccessToken
	}
	if token == "" {
		return "", errors.New("login response carried no token")
	}
	return token, nil
}

// Logout invalidates the backend session. Best-effort by contract: the
// caller clears local state whatever this returns.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.LogoutPath), http.NoBody)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	authorize(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("logout failed: backend returned %d", resp.StatusCode)
	}
	return nil
}

// Source returns an IdentitySource bound to token.
func (c *Client) Source(token string) ports.IdentitySource {
	return &tokenSource{client: c, token: token}
}

// tokenSource scopes identity fetches to one backend session.
type tokenSource struct {
	client *Client
	token  string
}

func (s *tokenSource) FetchIdentity(ctx context.Context) (any, error) {
	return s.client.getJSON(ctx, s.client.cfg.IdentityPath, s.token)
}

func (s *tokenSource) FetchPermissions(ctx context.Context) (any, error) {
	return s.client.getJSON(ctx, s.client.cfg.PermissionsPath, s.token)
}

// getJSON fetches a backend endpoint and decodes the body as opaque JSON.
func (c *Client) getJSON(ctx context.Context, path, token string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	authorize(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: backend returned %d", path, resp.StatusCode)
	}

	var payload any
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	return payload, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

func authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// drainAndClose consumes the remaining body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
