package crawler

import "strings"

// DetailURL builds the canonical absolute URL for an offer's detail page.
// Listing hrefs arrive either relative or absolute under whatever host the
// payload was rendered for; both are rewritten onto the fixed base. The
// "hpr/" path component marks recurring multi-unit listings and is stripped
// so the same unit always canonicalizes to the same URL.
func DetailURL(base, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.Index(href, "://"); i >= 0 {
		rest := href[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			href = rest[j:]
		} else {
			href = "/"
		}
	}
	href = strings.ReplaceAll(href, "/hpr/", "/")
	href = strings.TrimPrefix(href, "hpr/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}

// InvestmentURL builds the canonical URL for a multi-unit investment
// listing from its slug. Used as the session dedup key: every unit of the
// same investment resolves to this one URL.
func InvestmentURL(base, slug string) string {
	return strings.TrimSuffix(base, "/") + "/pl/oferta/" + slug
}
