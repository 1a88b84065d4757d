package cachebin

import (
	"net/url"
	"strings"
)

// CanonicalKey computes the request's canonical cache key: the URL
// with query parameters normalized, whitespace trimmed, and spaces
// percent-encoded, per §4.4.
func CanonicalKey(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return strings.ReplaceAll(trimmed, " ", "%20")
	}
	if parsed.RawQuery != "" {
		values := parsed.Query()
		parsed.RawQuery = values.Encode()
	}
	return strings.ReplaceAll(parsed.String(), " ", "%20")
}
