package identity

// Package identity implements the authorization resolution engine: it takes
// the raw, backend-defined identity payload (whose JSON layout is not
// controlled by this service and varies across backend versions) and
// reconciles it into the canonical auth.User. Extraction is best-effort over
// foreign data: malformed entries contribute nothing, they never error.

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// roleAliases collapses the known backend spellings to canonical roles.
// Lookup is case-insensitive. Anything not listed passes through lower-cased
// (open vocabulary) so unknown backend roles don't vanish.
var roleAliases = map[string]auth.Role{
	"administrador": auth.RoleAdmin,
	"admin":         auth.RoleAdmin,
	"docente":       auth.RoleDocente,
	"padre":         auth.RolePadre,
}

// NormalizeViewCode canonicalizes a raw view/permission identifier:
// uppercase, trimmed. It returns "" when the value is not string-like or
// trims down to nothing.
func NormalizeViewCode(raw any) string {
	s, ok := stringify(raw)
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeRole canonicalizes a raw role value. Known aliases collapse to
// one canonical role; any other non-blank value passes through lower-cased.
// Blank or non-string-like input yields "".
func NormalizeRole(raw any) auth.Role {
	s, ok := stringify(raw)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if role, ok := roleAliases[strings.ToLower(s)]; ok {
		return role
	}
	return auth.Role(strings.ToLower(s))
}

// stringify converts scalar JSON values (and their common Go decodings) to a
// string. Composite values, booleans, and nil are not string-like.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// asInt extracts an integer from the usual JSON decodings of a number.
// Numeric strings are accepted since backends are inconsistent about
// quoting identifiers.
func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		return 0, false
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}
