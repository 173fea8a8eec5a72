package bootstrap

import (
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/escuelahq/escuela-ui-api/config"
	"github.com/escuelahq/escuela-ui-api/internal/adapters/devauth"
	"github.com/escuelahq/escuela-ui-api/internal/adapters/oidc"
	redisadapter "github.com/escuelahq/escuela-ui-api/internal/adapters/redis"
	"github.com/escuelahq/escuela-ui-api/internal/adapters/schoolapi"
	"github.com/escuelahq/escuela-ui-api/internal/ports"
	"github.com/escuelahq/escuela-ui-api/internal/service"
)

// AuthConfig contains configuration for auth service construction.
type AuthConfig struct {
	Auth        config.AuthConfig
	BaseURL     string // for deriving the OAuth callback URL
	RedisClient redis.UniversalClient
	Audit       service.AuditRecorder
	Logger      *slog.Logger
}

// AuthResult carries the built auth service plus which login surfaces the
// router should expose.
type AuthResult struct {
	Service    *service.AuthService
	FormLogin  bool
	OAuthLogin bool
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns a zero AuthResult if auth cannot be configured.
func BuildAuthService(cfg AuthConfig) AuthResult {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return AuthResult{}
	}

	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	switch cfg.Auth.Mode {
	case config.AuthModeBackend:
		return buildBackendAuthService(cfg, sessionStore)

	case config.AuthModeOIDC:
		return buildOIDCAuthService(cfg, sessionStore)

	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore)

	default:
		return AuthResult{}
	}
}

func buildBackendAuthService(cfg AuthConfig, sessionStore *redisadapter.SessionStore) AuthResult {
	client, err := schoolapi.NewClient(schoolapi.Config{
		BaseURL:         cfg.Auth.Backend.BaseURL,
		LoginPath:       cfg.Auth.Backend.LoginPath,
		LogoutPath:      cfg.Auth.Backend.LogoutPath,
		IdentityPath:    cfg.Auth.Backend.IdentityPath,
		PermissionsPath: cfg.Auth.Backend.PermissionsPath,
		Timeout:         cfg.Auth.Backend.Timeout,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create school backend client, auth disabled", "error", err)
		}
		return AuthResult{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Backend:    client,
		Sessions:   sessionStore,
		Sources:    client.Source,
		Audit:      cfg.Audit,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     cfg.Logger,
	})
	return AuthResult{Service: svc, FormLogin: true}
}

func buildOIDCAuthService(cfg AuthConfig, sessionStore *redisadapter.SessionStore) AuthResult {
	oc := cfg.Auth.OIDC
	if oc.DiscoveryURL == "" || oc.ClientID == "" || oc.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOIDC selected but required config missing; auth disabled",
				"discovery_url_empty", oc.DiscoveryURL == "",
				"client_id_empty", oc.ClientID == "",
				"client_secret_empty", oc.ClientSecret == "",
			)
		}
		return AuthResult{}
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/auth/callback",
		Scope:        oc.Scope,
		DiscoveryURL: oc.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return AuthResult{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Audit:      cfg.Audit,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     cfg.Logger,
	})
	return AuthResult{Service: svc, OAuthLogin: true}
}

func buildDevAuthService(cfg AuthConfig, sessionStore *redisadapter.SessionStore) AuthResult {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          cfg.Auth.DevAuth.UserID,
		Name:            cfg.Auth.DevAuth.Name,
		Email:           cfg.Auth.DevAuth.Email,
		Roles:           cfg.Auth.DevAuth.Roles,
		Views:           cfg.Auth.DevAuth.Views,
		SessionDuration: cfg.Auth.SessionTTL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return AuthResult{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		// The canned provider doubles as the identity source so session
		// refreshes exercise the full resolution path in dev too.
		Sources:    func(string) ports.IdentitySource { return prov },
		Audit:      cfg.Audit,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     cfg.Logger,
	})
	return AuthResult{Service: svc, OAuthLogin: true}
}
