package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings parses an `ordering` query value: "name,-created_at".
func ParseOrderings(val string) []DBOrdering {
	var ords []DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = strings.TrimSpace(field[1:]) // drop "-"
		}
		if field == "" {
			continue
		}
		ords = append(ords, DBOrdering{Field: field, Ascending: !descending})
	}
	return ords
}

// CleanOrderings drops orderings on fields that are not in `allowed` and dedupes the rest.
// It falls back to `dflt` when nothing is left.
func CleanOrderings(ords []DBOrdering, allowed []string, dflt ...DBOrdering) []DBOrdering {
	cleaned := make([]DBOrdering, 0, len(ords))
	seen := make(map[string]bool, len(ords))
	for _, ord := range ords {
		if seen[ord.Field] || !containsString(allowed, ord.Field) {
			continue
		}
		seen[ord.Field] = true
		cleaned = append(cleaned, ord)
	}
	if len(cleaned) == 0 {
		return dflt
	}
	return cleaned
}

// OrderByClause renders orderings as a SQL ORDER BY clause (empty when there is none).
func OrderByClause(ords []DBOrdering) string {
	if len(ords) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ords))
	for _, ord := range ords {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
