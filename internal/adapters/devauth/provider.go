package devauth

// Package devauth provides a config-driven login provider for local
// development. It short-circuits the OAuth flow by redirecting back to our
// own callback, and serves a canned identity payload shaped like the school
// backend's (mixed keys, bare codes) so the resolution engine runs for real.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/escuelahq/escuela-ui-api/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	UserID          string
	Name            string
	Email           string
	Roles           []string
	Views           []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.LoginProvider and ports.IdentitySource for
// local development. Exchange ignores the code and returns the configured
// payload; FetchIdentity serves the same payload for session refreshes.
type Provider struct {
	cfg Config
}

var (
	_ ports.LoginProvider  = (*Provider)(nil)
	_ ports.IdentitySource = (*Provider)(nil)
)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	return &Provider{cfg: cfg}, nil
}

// Begin returns a local callback URL and random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// The standard handler expects GET /auth/callback?code=...&state=...
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code (validation is handled by the handler)
// and returns the canned payload.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (any, time.Time, error) {
	return p.payload(), time.Now().Add(p.cfg.SessionDuration), nil
}

// FetchIdentity serves the canned payload for session refreshes.
func (p *Provider) FetchIdentity(_ context.Context) (any, error) {
	return p.payload(), nil
}

// FetchPermissions serves the configured views as a bare-code list, the
// shape the fallback permissions endpoint uses.
func (p *Provider) FetchPermissions(_ context.Context) (any, error) {
	views := make([]any, 0, len(p.cfg.Views))
	for _, v := range p.cfg.Views {
		views = append(views, v)
	}
	return views, nil
}

// payload builds a fresh identity payload in the backend's shape: an
// embedded user object, a roles list, and bare view codes under "permisos".
func (p *Provider) payload() map[string]any {
	roles := make([]any, 0, len(p.cfg.Roles))
	for _, r := range p.cfg.Roles {
		roles = append(roles, r)
	}
	views := make([]any, 0, len(p.cfg.Views))
	for _, v := range p.cfg.Views {
		views = append(views, v)
	}
	user := map[string]any{
		"id":       p.cfg.UserID,
		"username": p.cfg.UserID,
		"email":    p.cfg.Email,
	}
	if p.cfg.Name != "" {
		user["nombre"] = p.cfg.Name
	}
	if len(roles) > 0 {
		user["role"] = roles[0]
	}
	return map[string]any{
		"user":     user,
		"roles":    roles,
		"permisos": views,
	}
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		return s, nil
	}
	return s[:n], nil
}
