package httpx

import (
	"html"
	"io"
	"log/slog"
	"net/http"

	domainauth "github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         AuthServiceInterface
	Denials      DenialRecorder
	Audit        AuditStore // nil disables the audit endpoints
	CookieDomain string
	FormLogin    bool // credential login against the school backend
	OAuthLogin   bool // provider flow
	Logger       *slog.Logger
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	gates := &GateOptions{Denials: services.Denials}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	registerAuthRoutes(mux, authHandlers, services)
	registerSessionRoutes(mux, authHandlers, services.Auth)

	if services.Audit != nil {
		registerAuditRoutes(mux, &AuditHandlers{Store: services.Audit}, authGates{
			Auth:  services.Auth,
			Gates: gates,
		})
	}

	mux.Handle("GET /forbidden", http.HandlerFunc(forbiddenHandler))

	return BrowserDetection()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, services RouterServices) {
	if services.FormLogin {
		mux.HandleFunc("POST /auth/login", h.LoginForm)
	}
	if services.OAuthLogin {
		mux.HandleFunc("GET /auth/login", h.BeginOAuth)
		mux.HandleFunc("GET /auth/callback", h.Callback)
	}
	mux.HandleFunc("POST /auth/logout", h.Logout)
}

func registerSessionRoutes(mux *http.ServeMux, h *AuthHandlers, auth AuthServiceInterface) {
	mux.HandleFunc("GET /api/session", h.Session)
	mux.HandleFunc("POST /api/session/refresh", h.Refresh)
	mux.Handle("GET /api/views", RequireSession(auth)(http.HandlerFunc(viewsHandler)))
}

// authGates bundles the session and capability gates for a route group.
type authGates struct {
	Auth  AuthServiceInterface
	Gates *GateOptions
}

func registerAuditRoutes(mux *http.ServeMux, h *AuditHandlers, g authGates) {
	session := RequireSession(g.Auth)
	auditoria := RequireView(g.Gates, "AUDITORIA")

	mux.Handle("GET /api/audit", session(auditoria(http.HandlerFunc(h.List))))
	mux.Handle("GET /api/audit/stats", session(auditoria(http.HandlerFunc(h.Stats))))

	// Purge is destructive; only administrators, whatever views they hold.
	adminOnly := RequireRole(g.Gates, domainauth.RoleAdmin)
	mux.Handle("POST /api/audit/purge", session(adminOnly(http.HandlerFunc(h.Purge))))
}

// viewsHandler returns the view descriptors granted to the current user.
// GET /api/views.
func viewsHandler(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	views := session.User.Views
	if views == nil {
		views = []domainauth.ViewDescriptor{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"views": views})
}

// forbiddenHandler renders the access-denied page browsers are sent to when
// a view gate rejects them.
func forbiddenHandler(w http.ResponseWriter, r *http.Request) {
	from := safeRedirectPath(r.URL.Query().Get("from"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	page := `<!doctype html><html><head><title>Acceso denegado</title></head><body>` +
		`<h1>Acceso denegado</h1>` +
		`<p>No tenés permiso para ver <code>` + html.EscapeString(from) + `</code>.</p>` +
		`<p><a href="/">Volver al inicio</a></p>` +
		`</body></html>`
	if _, err := io.WriteString(w, page); err != nil {
		return
	}
}
