package auth

import "strings"

const (
	// BulkScopeAllSearchResults selects every row matching the search
	// query instead of the explicit id list.
	BulkScopeAllSearchResults = "all_search_results"

	DefaultSortField     = "created_at"
	DefaultSortDirection = "asc"
)

// SortBy resolves a requested sort field and direction. Unknown fields
// fall back to created_at and unknown directions to asc.
func SortBy(allowed []string, field, direction string) (string, string) {
	field = strings.ToLower(strings.TrimSpace(field))
	direction = strings.ToLower(strings.TrimSpace(direction))

	resolved := DefaultSortField
	for _, candidate := range allowed {
		if candidate == field {
			resolved = field
			break
		}
	}

	if direction != "asc" && direction != "desc" {
		direction = DefaultSortDirection
	}

	return resolved, direction
}

// OmitIDs returns ids without the entries listed in omit, keeping order
// and dropping duplicates.
func OmitIDs(ids, omit []string) []string {
	skip := make(map[string]struct{}, len(omit))
	for _, id := range omit {
		skip[strings.TrimSpace(id)] = struct{}{}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
