package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/escuelahq/escuela-ui-api/internal/domain/auth"
	"github.com/escuelahq/escuela-ui-api/internal/domain/identity"
	"github.com/escuelahq/escuela-ui-api/internal/domain/model"
	"github.com/escuelahq/escuela-ui-api/internal/ports"
)

// AuditRecorder persists authorization-relevant events. Recording is
// best-effort throughout: a failed write is logged, never surfaced.
type AuditRecorder interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

// AuthServiceOptions groups dependencies for AuthService. Exactly one of
// Backend (form-login flow) or Provider (OIDC-style flow) drives logins;
// Sources optionally supplies per-token identity sources for refreshes.
type AuthServiceOptions struct {
	Backend    ports.BackendAuthenticator
	Provider   ports.LoginProvider
	Resolver   *identity.Resolver
	Sessions   ports.SessionStore
	Sources    func(token string) ports.IdentitySource
	Audit      AuditRecorder
	SessionTTL time.Duration // default 8h
	Logger     *slog.Logger
}

// AuthService orchestrates login flows, canonical user resolution, and
// session persistence. Every login and refresh builds a brand-new session
// value and replaces the stored one wholesale.
type AuthService struct {
	backend    ports.BackendAuthenticator
	provider   ports.LoginProvider
	resolver   *identity.Resolver
	sessions   ports.SessionStore
	sources    func(token string) ports.IdentitySource
	audit      AuditRecorder
	sessionTTL time.Duration
	logger     *slog.Logger
}

var errSessionExpired = errors.New("session expired")

// ErrSessionExpired reports whether err indicates an expired session.
func ErrSessionExpired(err error) bool { return errors.Is(err, errSessionExpired) }

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = identity.NewResolver(identity.ResolverOptions{Logger: logger})
	}
	return &AuthService{
		backend:    opts.Backend,
		provider:   opts.Provider,
		resolver:   resolver,
		sessions:   opts.Sessions,
		sources:    opts.Sources,
		audit:      opts.Audit,
		sessionTTL: ttl,
		logger:     logger,
	}
}

// LoginResult contains the session created by a successful login.
type LoginResult struct {
	Session domainauth.Session
}

// Login performs the legacy form-login flow: credentials to the backend,
// identity fetch, canonical user resolution, session creation. A backend
// login failure propagates uninterpreted.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.backend == nil {
		return nil, errors.New("form login is not configured")
	}
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	token, err := s.backend.Login(ctx, username, password)
	if err != nil {
		s.record(ctx, model.AuditEntry{Event: model.AuditLoginFailure, Username: username, Detail: err.Error()})
		return nil, fmt.Errorf("backend login: %w", err)
	}

	user, err := s.resolver.Resolve(ctx, s.backend.Source(token))
	if err != nil {
		s.record(ctx, model.AuditEntry{Event: model.AuditLoginFailure, Username: username, Detail: err.Error()})
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	session := domainauth.Session{
		ID:           uuid.NewString(),
		User:         user,
		ExpiresAt:    time.Now().Add(s.sessionTTL),
		BackendToken: token,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.record(ctx, model.AuditEntry{Event: model.AuditLogin, UserID: user.ID, Username: user.Username})
	return &LoginResult{Session: session}, nil
}

// BeginLoginResult contains the result of beginning an OIDC login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates the provider flow and returns the auth URL with
// state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("provider login is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a provider flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for the provider's raw claims payload,
// resolves it through the same engine as every other identity payload, and
// creates the session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("provider login is not configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	payload, expiresAt, err := s.provider.Exchange(ctx, ports.ExchangeInput(input))
	if err != nil {
		s.record(ctx, model.AuditEntry{Event: model.AuditLoginFailure, Detail: err.Error()})
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	src := &payloadSource{payload: payload}
	if s.sources != nil {
		src.fallback = s.sources("")
	}
	user, err := s.resolver.Resolve(ctx, src)
	if err != nil {
		s.record(ctx, model.AuditEntry{Event: model.AuditLoginFailure, Detail: err.Error()})
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.sessionTTL)
	}
	session := domainauth.Session{
		ID:        uuid.NewString(),
		User:      user,
		ExpiresAt: expiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.record(ctx, model.AuditEntry{Event: model.AuditLogin, UserID: user.ID, Username: user.Username})
	return &LoginResult{Session: session}, nil
}

// GetSession retrieves a session by ID, cleaning up expired ones.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired() {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// RefreshSession rebuilds the canonical user for an existing session and
// replaces the stored session wholesale. On resolution failure the previous
// session is returned alongside the error: the caller keeps serving the last
// known good user and reports the failure (documented choice point).
func (s *AuthService) RefreshSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.sources == nil {
		// No identity source to re-fetch from; the resolved user stands
		// until the session expires.
		return session, nil
	}

	user, err := s.resolver.Resolve(ctx, s.sources(session.BackendToken))
	if err != nil {
		s.record(ctx, model.AuditEntry{
			Event:    model.AuditRefreshFailure,
			UserID:   session.User.ID,
			Username: session.User.Username,
			Detail:   err.Error(),
		})
		return session, fmt.Errorf("refresh resolve: %w", err)
	}

	refreshed := domainauth.Session{
		ID:           session.ID,
		User:         user,
		ExpiresAt:    session.ExpiresAt,
		BackendToken: session.BackendToken,
	}
	if saveErr := s.sessions.Save(ctx, refreshed); saveErr != nil {
		return session, fmt.Errorf("save refreshed session: %w", saveErr)
	}

	s.record(ctx, model.AuditEntry{Event: model.AuditRefresh, UserID: user.ID, Username: user.Username})
	return &refreshed, nil
}

// Logout clears the local session and best-effort invalidates the backend
// one. Upstream failures are logged, never surfaced; the local session is
// removed regardless.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err == nil && s.backend != nil && session.BackendToken != "" {
		if logoutErr := s.backend.Logout(ctx, session.BackendToken); logoutErr != nil {
			s.logger.WarnContext(ctx, "backend logout failed, clearing local session anyway",
				"error", logoutErr)
		}
	}

	if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
		return fmt.Errorf("delete session: %w", deleteErr)
	}
	if err == nil {
		s.record(ctx, model.AuditEntry{Event: model.AuditLogout, UserID: session.User.ID, Username: session.User.Username})
	}
	return nil
}

// RecordDenial audits a capability-gate denial. Exposed for the HTTP layer.
func (s *AuthService) RecordDenial(ctx context.Context, user domainauth.User, path string) {
	s.record(ctx, model.AuditEntry{
		Event:    model.AuditAccessDenied,
		UserID:   user.ID,
		Username: user.Username,
		Detail:   path,
	})
}

// record persists an audit entry, stamping the time. Best-effort.
func (s *AuthService) record(ctx context.Context, entry model.AuditEntry) {
	if s.audit == nil {
		return
	}
	entry.OccurredAt = time.Now().UTC()
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "event", entry.Event, "error", err)
	}
}

// payloadSource adapts an already-fetched payload (e.g. verified OIDC
// claims) to ports.IdentitySource. The fallback permissions fetch delegates
// when a fallback source exists and degrades otherwise.
type payloadSource struct {
	payload  any
	fallback ports.IdentitySource
}

func (p *payloadSource) FetchIdentity(_ context.Context) (any, error) {
	return p.payload, nil
}

func (p *payloadSource) FetchPermissions(ctx context.Context) (any, error) {
	if p.fallback == nil {
		return nil, errors.New("no fallback permissions source configured")
	}
	return p.fallback.FetchPermissions(ctx)
}
