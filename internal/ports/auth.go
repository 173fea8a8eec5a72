package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// IdentitySource fetches raw payloads for one authenticated backend session.
// Both payloads are opaque decoded JSON whose shape is owned by the backend,
// not by this service; the resolution engine reconciles them.
type IdentitySource interface {
	// FetchIdentity returns the raw identity payload for the current user.
	FetchIdentity(ctx context.Context) (any, error)

	// FetchPermissions returns the raw payload of the secondary permissions
	// endpoint. Used only as a fallback when the identity payload yields no
	// views.
	FetchPermissions(ctx context.Context) (any, error)
}

// BackendAuthenticator drives the legacy form-login flow against the school
// records backend.
type BackendAuthenticator interface {
	// Login posts form-encoded credentials and returns an opaque backend
	// token scoping subsequent identity fetches. A failure propagates to the
	// caller uninterpreted.
	Login(ctx context.Context, username, password string) (string, error)

	// Logout invalidates the upstream session for token. Best-effort: the
	// caller clears local state regardless of the result.
	Logout(ctx context.Context, token string) error

	// Source returns an IdentitySource bound to token.
	Source(token string) IdentitySource
}

// BeginInput carries inputs for initiating an OIDC auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// LoginProvider initiates and completes an authentication flow against an
// IdP. Exchange returns the provider's claims as one more arbitrarily-shaped
// raw identity payload for the resolution engine, plus the absolute expiry.
type LoginProvider interface {
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
	Exchange(ctx context.Context, in ExchangeInput) (payload any, expiresAt time.Time, err error)
}

// SessionStore persists and retrieves user sessions. Save replaces the whole
// record: sessions are immutable values, never partially mutated.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}
