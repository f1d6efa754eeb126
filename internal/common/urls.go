package common

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for dedupe and comparison: lowercase
// scheme and host, default port stripped, trailing slash stripped from the
// path. Returns the input unchanged when it cannot be parsed.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return trimmed
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)

	// Strip default ports
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimRight(parsed.Path, "/")

	normalized := scheme + "://" + host + path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	return normalized
}

// URLDomain extracts the lowercase hostname from a URL or bare domain,
// with any www. prefix removed.
func URLDomain(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	host := trimmed
	if strings.Contains(trimmed, "://") {
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
	}

	host = strings.ToLower(host)
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return strings.TrimPrefix(host, "www.")
}

// SameURL reports whether two URLs refer to the same page: equal hosts
// (ignoring www. and case) and equal paths (ignoring a trailing slash).
func SameURL(a, b string) bool {
	pa, errA := url.Parse(strings.TrimSpace(a))
	pb, errB := url.Parse(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return NormalizeURL(a) == NormalizeURL(b)
	}

	hostA := strings.TrimPrefix(strings.ToLower(pa.Host), "www.")
	hostB := strings.TrimPrefix(strings.ToLower(pb.Host), "www.")
	if hostA == "" || hostA != hostB {
		return false
	}

	return strings.TrimRight(pa.Path, "/") == strings.TrimRight(pb.Path, "/")
}

// SameDomain reports whether a URL points at the given domain, matching
// the domain itself or any subdomain of it.
func SameDomain(rawURL, domain string) bool {
	host := URLDomain(rawURL)
	target := URLDomain(domain)
	if host == "" || target == "" {
		return false
	}
	return host == target || strings.HasSuffix(host, "."+target)
}

// URLPath returns the lowercase path component of a URL, empty when the
// URL cannot be parsed.
func URLPath(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Path)
}

// URLTLD returns the final dot-separated label of a URL's host, empty when
// there is none. "https://spam.example.xyz/p" returns "xyz".
func URLTLD(raw string) string {
	host := URLDomain(raw)
	idx := strings.LastIndex(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return ""
	}
	return host[idx+1:]
}
