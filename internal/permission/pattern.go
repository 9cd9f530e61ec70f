package permission

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// AllURLs matches every http and https origin.
const AllURLs = "<all_urls>"

// OriginPattern derives "scheme://host/*" from a base URL. Non-ASCII hosts
// are converted to their ASCII form. It reports false for anything that is
// not an absolute http or https URL.
func OriginPattern(baseURL string) (string, bool) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	host := u.Hostname()
	if host == "" {
		return "", false
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			host = "[" + host + "]"
		}
	} else {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", false
		}
		host = ascii
	}

	if port := u.Port(); port != "" {
		host += ":" + port
	}

	return u.Scheme + "://" + host + "/*", true
}

// Matches reports whether origin satisfies any of patterns.
func Matches(patterns []string, origin string) bool {
	for _, p := range patterns {
		if p == origin {
			return true
		}
	}
	for _, p := range patterns {
		if matchPattern(p, origin) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, origin string) bool {
	if pattern == AllURLs {
		return strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
	}
	return wildcardMatch(pattern, origin)
}

// wildcardMatch matches s against p where '*' stands for any run of characters.
func wildcardMatch(p, s string) bool {
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(p) && p[pi] == '*':
			star, mark = pi, si
			pi++
		case pi < len(p) && p[pi] == s[si]:
			pi++
			si++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
