package relay

import (
	"net/http"
	"strings"
)

// Wildcard terminates a subscription key that matches every dispatch key
// sharing its prefix.
const Wildcard = "*"

// DispatchKey builds the key a request is published under: the lower-cased
// method followed by the URL path, e.g. "get/users/42".
func DispatchKey(method, path string) string {
	return strings.ToLower(method) + path
}

// NormalizePrefix returns url with a trailing slash. An empty url becomes "/".
func NormalizePrefix(url string) string {
	if url == "" {
		return "/"
	}
	if !strings.HasSuffix(url, "/") {
		return url + "/"
	}
	return url
}

// BodyAllowed reports whether a response with the given status may carry a
// Content-Length. 1xx, 204 and 304 responses must not (RFC 9110 8.6).
func BodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

// IsDotfile reports whether any segment of the slash separated path starts
// with a dot.
func IsDotfile(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if len(seg) > 1 && seg[0] == '.' {
			return true
		}
	}
	return false
}
