// Package domain turns user-supplied URLs into the canonical site names
// that overrides are keyed by.
package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize returns the site name for input. It accepts bare domains and
// full URLs:
//
//	https://www.example.com:8443/login?x=1  ->  example.com
//	m.example.com                           ->  example.com
//	Example.COM                             ->  example.com
//
// Text is NFC-normalized so that visually identical names share one
// override. Empty input stays empty.
func Canonicalize(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	s = strings.ToLower(norm.NFC.String(s))

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	s = stripPort(s)
	s = strings.TrimSuffix(s, ".")

	return stripMobilePrefix(s)
}

func stripPort(host string) string {
	i := strings.LastIndex(host, ":")
	if i < 0 {
		return host
	}
	for _, r := range host[i+1:] {
		if r < '0' || r > '9' {
			return host
		}
	}
	return host[:i]
}

// stripMobilePrefix drops one leading "www" or "m" label. Only exact labels
// match: www2.example.com and wwwhatsnew.com are distinct sites.
func stripMobilePrefix(host string) string {
	label, rest, ok := strings.Cut(host, ".")
	if !ok || rest == "" {
		return host
	}
	if label == "www" || label == "m" {
		return rest
	}
	return host
}
