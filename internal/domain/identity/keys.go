package identity

import "strings"

// Key tables for the heuristic object walks. Order matters for the code
// lookup: the first present key wins.
var (
	codeKeys = []string{"codigo", "code", "permiso", "permission"}
	idKeys   = []string{"id", "vista_id", "permiso_id", "permission_id"}
	nameKeys = []string{"nombre", "name", "titulo", "title"}
	descKeys = []string{"descripcion", "description", "detalle"}
)

// looksLikeRoleKey reports whether a map key plausibly holds role data.
// This is an intentionally broad substring test ("role" or "rol") used by
// the role collector to restrict recursion; it is heuristic, not
// authoritative, and can over-match on unrelated keys (e.g.
// "rolename_custom", "enrolment"). That trade-off is accepted: a false
// positive only feeds extra values into role normalization, which drops
// anything non-scalar.
func looksLikeRoleKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "role") || strings.Contains(k, "rol")
}

// roleShapedViewKey reports whether a map key must be skipped during view
// extraction: role-shaped data must not be mistaken for view data. Keys that
// also mention permissions or views stay eligible (e.g. "role_permissions").
func roleShapedViewKey(key string) bool {
	k := strings.ToLower(key)
	if !strings.Contains(k, "role") {
		return false
	}
	return !strings.Contains(k, "permission") && !strings.Contains(k, "vista")
}

// permissionLikeKey reports whether a map key suggests its value carries
// permission/view data, making a nested object worth recursing into.
func permissionLikeKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "permission") || strings.Contains(k, "vista")
}

// lookupAny returns the first present value among the given keys.
func lookupAny(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
