package guard

import "strings"

// NormalizeHost lowercases and trims host and strips a single leading "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// IsNonProduction reports whether current differs from the configured
// production host. A disabled guard always reports production.
func IsNonProduction(current, configured string, enabled bool) bool {
	if !enabled {
		return false
	}
	return NormalizeHost(current) != NormalizeHost(configured)
}
