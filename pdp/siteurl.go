// Package pdp discovers and validates product detail pages from a
// storefront's serialized DOM.
package pdp

import (
	"net/url"
	"strings"
)

// excludedSegments are path segments that never lead to a product page.
// Links containing any of them are always discarded.
var excludedSegments = []string{
	"account", "cart", "checkout", "logout", "login", "signin", "signout",
}

// registrableDomain reduces a hostname to its effective TLD+1: the "www."
// prefix is stripped and, for hosts with three or more labels, only the
// last two are kept. Subdomains therefore compare equal to their apex.
func registrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = strings.TrimPrefix(host, "www.")
	labels := strings.Split(host, ".")
	if len(labels) >= 3 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return host
}

// sameSite reports whether candidate resolves to the same site as base.
func sameSite(candidate, base *url.URL) bool {
	return registrableDomain(candidate.Hostname()) == registrableDomain(base.Hostname())
}

// hasExcludedSegment checks the path for account/cart/auth segments.
func hasExcludedSegment(path string) bool {
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		for _, excluded := range excludedSegments {
			if seg == excluded {
				return true
			}
		}
	}
	return false
}

// normalizeCandidate resolves href against base and returns the absolute
// URL without fragment, or "" when the link cannot be a PDP candidate
// (cross-site, excluded segment, mailto/tel, fragment-only).
func normalizeCandidate(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !sameSite(resolved, base) {
		return ""
	}
	if hasExcludedSegment(resolved.Path) {
		return ""
	}

	resolved.Fragment = ""
	return resolved.String()
}

// FilterCandidates applies the same-site and excluded-segment rules to a
// list of raw URLs, de-duplicates them preserving encounter order, and
// caps the result.
func FilterCandidates(rawURLs []string, baseURL string, cap int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(rawURLs))
	var out []string
	for _, raw := range rawURLs {
		normalized := normalizeCandidate(raw, base)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
		if cap > 0 && len(out) >= cap {
			break
		}
	}
	return out
}
