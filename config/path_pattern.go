package config

import (
	"regexp"
	"strings"
)

var templatedURLPattern = regexp.MustCompile(`{{\.(.*?)}}`)

// NormalizeURLPattern transforms a Lura backend url pattern like
// `/users/{{.Id}}?lang={{.Lang}}` into a low cardinality label
// value like `/users/{id}`: the query string is dropped, and the
// template params are lowercased.
func NormalizeURLPattern(u string) string {
	if idx := strings.IndexByte(u, '?'); idx >= 0 {
		u = u[:idx]
	}
	return templatedURLPattern.ReplaceAllStringFunc(u,
		func(x string) string {
			return "{" + strings.ToLower(x[3:len(x)-2]) + "}"
		})
}
