package core

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// StringInSlice reports whether `s` is one of `list`.
func StringInSlice(s string, list []string) bool {
	return containsString(list, s)
}

// CleanNullString trims `ns` and turns empty values into null.
func CleanNullString(ns null.String) null.String {
	s := strings.TrimSpace(ns.String)
	return null.NewString(s, ns.Valid && s != "")
}
