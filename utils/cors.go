package utils

import (
	"net/url"
	"strings"
)

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Localhost and .local hostnames are always allowed (the UI is typically
// served from a dev server or a LAN box); anything else must appear in the
// configured extra origins.
func IsAllowedOrigin(origin string, extra []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range extra {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	hostname := parsed.Hostname()

	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}
	return strings.HasSuffix(hostname, ".local")
}
