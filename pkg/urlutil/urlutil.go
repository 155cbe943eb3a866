package urlutil

import (
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Canonicalize applies a deterministic normalization to a URL, producing the
// canonical form used as a page's identity throughout the crawl. Two URLs
// that canonicalize equal are considered the same resource.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Query parameters are removed
//   - Fragments are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//   - Trailing slashes are stripped unless the path is the root "/"
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
//   - Context-free: does not depend on crawl history
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Strip trailing slashes unless the path is the root
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
		canonical.RawPath = ""
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	// Remove query parameters
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// IsValid reports whether a URL is admissible by scheme and authority:
// http or https, a non-empty host with no whitespace, and a parseable
// host form. Everything else (mailto:, javascript:, relative noise from
// malformed hrefs) is rejected before it can reach the frontier.
func IsValid(u url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" || u.Hostname() == "" {
		return false
	}
	if strings.ContainsAny(u.Host, " \t\r\n") {
		return false
	}
	// Reject an unparseable port (e.g. "host:abc")
	if strings.Contains(u.Host, ":") {
		if _, port, err := net.SplitHostPort(u.Host); err != nil || strings.Trim(port, "0123456789") != "" {
			return false
		}
	}
	return true
}

// IsCGI reports whether the URL path contains a CGI segment.
// CGI endpoints are skipped wholesale: they tend to be infinite
// link generators.
func IsCGI(u url.URL) bool {
	return strings.Contains(strings.ToLower(u.Path), "cgi")
}

// blockedExtensions lists file extensions that never yield crawlable HTML.
var blockedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {},
	".pdf": {}, ".zip": {}, ".exe": {}, ".js": {}, ".css": {},
	".mp4": {}, ".mp3": {}, ".avi": {}, ".mov": {}, ".doc": {},
	".ppt": {}, ".xls": {}, ".rar": {}, ".tar": {}, ".dmg": {},
	".php": {}, ".jsp": {}, ".cgi": {}, ".aspx": {},
}

// IsBlockedExtension reports whether the URL path ends in an extension
// from the fixed blocklist. Matching is case-insensitive.
func IsBlockedExtension(u url.URL) bool {
	ext := strings.ToLower(path.Ext(u.Path))
	_, blocked := blockedExtensions[ext]
	return blocked
}

// Host returns the authority portion of the URL (host and optional port).
func Host(u url.URL) string {
	return u.Host
}

// RegisteredDomain returns the eTLD+1 of the URL's host, the unit used to
// group hosts for crawl diversity. For example a.b.example.co.uk maps to
// example.co.uk.
func RegisteredDomain(u url.URL) string {
	return RegisteredDomainOfHost(u.Host)
}

// RegisteredDomainOfHost returns the eTLD+1 of a bare host string, ignoring
// any port. Hosts the public-suffix table cannot resolve (IP addresses,
// single-label hosts) group under themselves.
func RegisteredDomainOfHost(host string) string {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	if net.ParseIP(hostname) != nil {
		return hostname
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(lowerASCII(hostname))
	if err != nil {
		return lowerASCII(hostname)
	}
	return domain
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
