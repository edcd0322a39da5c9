package gate

import (
	"path"
	"strings"
)

// AllowList holds Ant-style path patterns exempt from authentication.
//
//	/healthz           exact match
//	/api/v1/*/status   "*" matches within one segment
//	/api/v1/auth/**    the prefix itself and everything below it
type AllowList struct {
	patterns []string
}

func NewAllowList(patterns ...string) *AllowList {
	return &AllowList{patterns: append([]string(nil), patterns...)}
}

// Allowed reports whether p matches any pattern. p is cleaned first so
// dot segments cannot escape an allow-listed prefix.
func (a *AllowList) Allowed(p string) bool {
	if p == "" {
		p = "/"
	}
	p = path.Clean(p)

	for _, pattern := range a.patterns {
		if match(pattern, p) {
			return true
		}
	}
	return false
}

func match(pattern, p string) bool {
	if pattern == "/**" || pattern == "**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
		return false
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}
