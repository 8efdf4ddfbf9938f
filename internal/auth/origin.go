package auth

import (
	"net/url"
	"strings"
)

// CheckOrigin reports whether a login completion message from origin may be
// trusted. Only the exact backend origin (scheme, host, and port) is
// allowed; everything else is ignored.
func CheckOrigin(origin, backendOrigin string) bool {
	if origin == "" || backendOrigin == "" {
		return false
	}

	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}

	b, err := url.Parse(backendOrigin)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return false
	}

	return strings.EqualFold(o.Scheme, b.Scheme) && strings.EqualFold(hostPort(o), hostPort(b))
}

// hostPort normalizes an origin's host:port, filling in scheme defaults so
// "https://example.com" and "https://example.com:443" compare equal.
func hostPort(u *url.URL) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return host + ":" + port
}
