package identity

import (
	"context"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/escuelahq/escuela-ui-api/internal/domain/auth"
	apperrors "github.com/escuelahq/escuela-ui-api/internal/errors"
	"github.com/escuelahq/escuela-ui-api/internal/ports"
)

// PayloadEvaluator abstracts path lookup over the raw payload for
// testability. The default implementation uses JMESPath.
type PayloadEvaluator interface {
	Search(expr string, data any) (any, error)
}

// jmespathEvaluator implements PayloadEvaluator using go-jmespath.
type jmespathEvaluator struct{}

func (jmespathEvaluator) Search(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// Candidate source paths over the raw payload, in resolution order. The
// lists are explicit and exhaustive: adding a new backend layout means
// adding a path here, nowhere else.
var (
	// roleSourcePaths feed the role collector. The resolved user's own
	// "role" field is visited between the head and tail groups (it is not a
	// path because the resolved user may be the payload root itself).
	roleSourceHeadPaths = []string{
		"roles",
		"role",
		"role_context",
		"user.role",
		"user.roles",
		"user.role_context",
		"user.context",
	}
	roleSourceTailPaths = []string{
		"context.role",
		"context.roles",
	}

	// viewSourcePaths feed the view extractor. The resolved user's own
	// "vistas" field is visited last.
	viewSourcePaths = []string{
		"vistas",
		"permissions",
		"permisos",
		"permissions_cache",
		"permission_cache",
		"role_context",
		"user.vistas",
		"user.permissions",
		"user.permisos",
		"user.permissions_cache",
		"user.permission_cache",
		"user.role_context",
	}
)

// ResolverOptions groups dependencies for Resolver.
type ResolverOptions struct {
	Evaluator PayloadEvaluator
	Logger    *slog.Logger
}

// Resolver builds the canonical user from a raw identity payload. It is the
// single owner of the reconciliation policy: which payload corners are
// consulted, in which order, and how degraded data is recovered.
type Resolver struct {
	eval   PayloadEvaluator
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	eval := opts.Evaluator
	if eval == nil {
		eval = jmespathEvaluator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{eval: eval, logger: logger}
}

// Resolve fetches the identity payload through src and reconciles it into an
// immutable auth.User. A primary fetch failure propagates as an upstream
// error; a payload that is not an object fails as invalid_shape. The
// fallback permissions fetch (taken only when the payload yields zero views)
// never propagates: it degrades to an empty view list.
func (r *Resolver) Resolve(ctx context.Context, src ports.IdentitySource) (auth.User, error) {
	payload, err := src.FetchIdentity(ctx)
	if err != nil {
		return auth.User{}, apperrors.Upstream("fetch identity payload", err)
	}

	root, ok := payload.(map[string]any)
	if !ok {
		return auth.User{}, apperrors.InvalidShape("identity payload is not an object")
	}

	// Prefer an embedded user object; fall back to the payload itself.
	userObj := root
	if u, isObj := root["user"].(map[string]any); isObj {
		userObj = u
	}

	roles := CollectRoles(r.roleSources(root, userObj))

	views := DedupeViews(r.extractAllViews(root, userObj))
	if len(views) == 0 {
		views = r.fallbackViews(ctx, src)
	}

	primary := auth.Role("")
	if len(roles) > 0 {
		primary = roles[0]
	} else {
		primary = NormalizeRole(userObj["role"])
	}

	user := auth.User{
		ID:          firstScalar(userObj, "id", "user_id", "usuario_id"),
		DisplayName: firstScalar(userObj, "name", "nombre", "display_name", "full_name"),
		Username:    firstScalar(userObj, "username", "usuario", "user_name"),
		Email:       firstScalar(userObj, "email", "correo", "mail"),
		PrimaryRole: primary,
		Roles:       roles,
		Views:       views,
	}
	return user, nil
}

// roleSources evaluates the role candidate paths in order, splicing in the
// resolved user's own role field at its documented position.
func (r *Resolver) roleSources(root, userObj map[string]any) []any {
	sources := r.evalPaths(root, roleSourceHeadPaths)
	if own, ok := userObj["role"]; ok {
		sources = append(sources, own)
	}
	sources = append(sources, r.evalPaths(root, roleSourceTailPaths)...)
	return sources
}

// extractAllViews runs the extractor over every view candidate source,
// concatenating results in source order for a single dedupe pass.
func (r *Resolver) extractAllViews(root, userObj map[string]any) []auth.ViewDescriptor {
	var out []auth.ViewDescriptor
	for _, src := range r.evalPaths(root, viewSourcePaths) {
		out = append(out, ExtractViews(src)...)
	}
	if own, ok := userObj["vistas"]; ok {
		out = append(out, ExtractViews(own)...)
	}
	return out
}

// fallbackViews performs the one-shot secondary permissions fetch. Failures
// are logged and degrade to an empty list.
func (r *Resolver) fallbackViews(ctx context.Context, src ports.IdentitySource) []auth.ViewDescriptor {
	payload, err := src.FetchPermissions(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "fallback permissions fetch failed, degrading to empty view list",
			"error", err)
		return []auth.ViewDescriptor{}
	}
	return DedupeViews(ExtractViews(payload))
}

// evalPaths evaluates each path against the payload, keeping only non-nil
// results. Evaluation errors are treated as absent sources: the payload is
// foreign data and a path that doesn't apply is normal, not exceptional.
func (r *Resolver) evalPaths(root map[string]any, paths []string) []any {
	out := make([]any, 0, len(paths))
	for _, p := range paths {
		v, err := r.eval.Search(p, root)
		if err != nil || v == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// firstScalar returns the first key whose value stringifies to a non-blank
// string. Identity fields arrive as strings or numbers depending on backend
// version.
func firstScalar(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, scalar := stringify(v); scalar && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
