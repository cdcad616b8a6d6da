package utils

import (
	"path"
	"strings"
)

// RequestPath strips query and fragment from uri and cleans the path so it
// can be matched against passthrough rules.
func RequestPath(uri string) string {
	if uri == "" {
		return "/"
	}

	if idx := strings.IndexAny(uri, "?#"); idx != -1 {
		uri = uri[:idx]
	}

	trailing := strings.HasSuffix(uri, "/") && len(uri) > 1
	cleaned := path.Clean(uri)

	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	if trailing && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}
