package identity

import (
	"sort"

	"github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// CollectRoles visits an ordered list of candidate payload sub-values
// depth-first, left-to-right, and returns the normalized roles as an
// ordered set: first occurrence wins position, later duplicates are no-ops.
//
// Scalars are only collected when reached through a role-like key (see
// looksLikeRoleKey) or directly from a candidate source; containers under
// other keys are still traversed in search of role-like keys deeper down,
// but their bare scalars contribute nothing. Object keys are walked in
// sorted order so the result is deterministic.
func CollectRoles(sources []any) []auth.Role {
	seen := make(map[auth.Role]struct{})
	var out []auth.Role

	add := func(v any) {
		role := NormalizeRole(v)
		if role == "" {
			return
		}
		if _, dup := seen[role]; dup {
			return
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}

	var visit func(v any, collect bool)
	visit = func(v any, collect bool) {
		switch t := v.(type) {
		case []any:
			for _, el := range t {
				visit(el, collect)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if looksLikeRoleKey(k) {
					visit(t[k], true)
					continue
				}
				switch t[k].(type) {
				case map[string]any, []any:
					visit(t[k], false)
				}
			}
		default:
			if collect {
				add(t)
			}
		}
	}

	for _, src := range sources {
		visit(src, true)
	}
	return out
}
