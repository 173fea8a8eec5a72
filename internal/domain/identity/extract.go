package identity

import (
	"sort"
	"strings"

	"github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// ExtractViews walks an arbitrary decoded JSON value and produces view
// descriptors using the documented heuristic, in priority order:
//
//  1. arrays: each element is either a bare code (string/number) or an
//     object carrying a code-like key;
//  2. objects with an "items" or "data" array: delegate to the array rule;
//  3. other objects: walk key/value pairs, skipping role-shaped keys,
//     recursing into arrays and permission-like nested objects, and treating
//     scalar values as bare codes;
//  4. anything else yields nothing.
//
// The result is NOT deduplicated; callers must pass it through DedupeViews.
func ExtractViews(v any) []auth.ViewDescriptor {
	switch t := v.(type) {
	case []any:
		return extractFromList(t)
	case map[string]any:
		if items, ok := t["items"].([]any); ok {
			return extractFromList(items)
		}
		if items, ok := t["data"].([]any); ok {
			return extractFromList(items)
		}
		return extractFromMap(t)
	default:
		return nil
	}
}

// extractFromList handles the array rule. The element index (1-based) is the
// fallback id when the element carries no explicit numeric identifier.
func extractFromList(items []any) []auth.ViewDescriptor {
	out := make([]auth.ViewDescriptor, 0, len(items))
	for i, el := range items {
		switch t := el.(type) {
		case map[string]any:
			if d, ok := descriptorFromObject(t, i+1); ok {
				out = append(out, d)
			}
		default:
			if d, ok := descriptorFromBareCode(el, i+1); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// extractFromMap handles free-form objects. Keys are walked in sorted order
// so the ordinal fallback ids are deterministic regardless of map iteration.
func extractFromMap(m map[string]any) []auth.ViewDescriptor {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []auth.ViewDescriptor
	for i, k := range keys {
		if roleShapedViewKey(k) {
			continue
		}
		switch val := m[k].(type) {
		case []any:
			out = append(out, extractFromList(val)...)
		case map[string]any:
			if permissionLikeKey(k) {
				out = append(out, ExtractViews(val)...)
			}
		default:
			if d, ok := descriptorFromBareCode(val, i+1); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// descriptorFromBareCode treats a scalar as a view code.
func descriptorFromBareCode(v any, fallbackID int) (auth.ViewDescriptor, bool) {
	code := NormalizeViewCode(v)
	if code == "" {
		return auth.ViewDescriptor{}, false
	}
	return auth.ViewDescriptor{ID: fallbackID, Name: code, Code: code}, true
}

// descriptorFromObject extracts a descriptor from an object element. The
// element is dropped when no code-like key is present or the code
// normalizes to nothing.
func descriptorFromObject(m map[string]any, fallbackID int) (auth.ViewDescriptor, bool) {
	rawCode, ok := lookupAny(m, codeKeys)
	if !ok {
		return auth.ViewDescriptor{}, false
	}
	code := NormalizeViewCode(rawCode)
	if code == "" {
		return auth.ViewDescriptor{}, false
	}

	id := fallbackID
	if rawID, found := lookupAny(m, idKeys); found {
		if n, numeric := asInt(rawID); numeric {
			id = n
		}
	}

	name := code
	if rawName, found := lookupAny(m, nameKeys); found {
		if s, scalar := stringify(rawName); scalar && strings.TrimSpace(s) != "" {
			name = strings.TrimSpace(s)
		}
	}

	var desc *string
	if rawDesc, found := lookupAny(m, descKeys); found {
		if s, scalar := stringify(rawDesc); scalar && strings.TrimSpace(s) != "" {
			trimmed := strings.TrimSpace(s)
			desc = &trimmed
		}
	}

	return auth.ViewDescriptor{ID: id, Name: name, Code: code, Description: desc}, true
}
