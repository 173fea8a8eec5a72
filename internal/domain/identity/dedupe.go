package identity

import (
	"strings"

	"github.com/escuelahq/escuela-ui-api/internal/domain/auth"
)

// DedupeViews merges extracted descriptors by canonical code with
// last-write-wins semantics: when two descriptors share a code, the later
// one's fields replace the earlier one's, but the merged descriptor keeps
// the position at which the code was first seen. Ids pass through untouched;
// the extractors assign positional fallbacks, so a backend that really emits
// id 0 keeps it. Blank names default to the code; blank descriptions become
// nil.
func DedupeViews(in []auth.ViewDescriptor) []auth.ViewDescriptor {
	order := make([]string, 0, len(in))
	byCode := make(map[string]auth.ViewDescriptor, len(in))
	for _, d := range in {
		if d.Code == "" {
			continue
		}
		if _, seen := byCode[d.Code]; !seen {
			order = append(order, d.Code)
		}
		byCode[d.Code] = d
	}

	out := make([]auth.ViewDescriptor, 0, len(order))
	for _, code := range order {
		d := byCode[code]
		if strings.TrimSpace(d.Name) == "" {
			d.Name = d.Code
		}
		if d.Description != nil && strings.TrimSpace(*d.Description) == "" {
			d.Description = nil
		}
		out = append(out, d)
	}
	return out
}
