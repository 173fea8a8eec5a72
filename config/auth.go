package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeBackend posts form credentials to the school records backend.
	AuthModeBackend AuthMode = "backend"
	// AuthModeOIDC uses OAuth/OIDC for authentication.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "backend", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: backend, oidc, mock)", v)
	}
}

// BackendAPIConfig points at the school records backend used for credential
// login and identity fetches (used when Mode=backend).
type BackendAPIConfig struct {
	BaseURL         string        `env:"BASE_URL"         envDefault:"http://localhost:3000"`
	LoginPath       string        `env:"LOGIN_PATH"       envDefault:"/api/auth/login"`
	LogoutPath      string        `env:"LOGOUT_PATH"      envDefault:"/api/auth/logout"`
	IdentityPath    string        `env:"IDENTITY_PATH"    envDefault:"/api/me"`
	PermissionsPath string        `env:"PERMISSIONS_PATH" envDefault:"/api/me/permisos"`
	Timeout         time.Duration `env:"TIMEOUT"          envDefault:"10s"`
}

// OIDCConfig contains OAuth/OIDC configuration (used when Mode=oidc).
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"escuela"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"escuela"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Email  string   `env:"EMAIL"   envDefault:"dev@escuela.edu"`
	Roles  []string `env:"ROLES"   envDefault:"admin"            envSeparator:";"`
	Views  []string `env:"VIEWS"   envDefault:"DASHBOARD;AUDITORIA" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"backend"`

	// Backend configuration (used when Mode=backend).
	Backend BackendAPIConfig `envPrefix:"BACKEND_"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionTTL bounds how long a resolved session lives.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`
}

// Sanitize applies guardrails to authentication configuration values.
func (c *AuthConfig) Sanitize() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 8 * time.Hour
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
}
