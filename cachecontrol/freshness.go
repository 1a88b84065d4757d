package cachecontrol

import (
	"net/http"
	"time"
)

// HTTPDate parses an HTTP-date value (RFC 1123 layout, as emitted by
// net/http and by the wire format in §6 of the spec).
func HTTPDate(value string) (time.Time, error) {
	return time.Parse(http.TimeFormat, value)
}

// ToHTTPDate renders t in the HTTP-date wire format.
func ToHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// FreshnessLifetime implements the §4.2.1 precedence: s-maxage (shared
// caches), then max-age, then Expires minus Date. Zero means "no
// explicit freshness; treat as already stale absent other policy."
func FreshnessLifetime(h http.Header) time.Duration {
	directives := ParseHeader(h)
	if ttl, ok := directives.SMaxAge(); ok {
		return ttl
	}
	if ttl, ok := directives.MaxAge(); ok {
		return ttl
	}
	expires, err := HTTPDate(h.Get("Expires"))
	if err != nil {
		return 0
	}
	date, err := HTTPDate(h.Get("Date"))
	if err != nil {
		date = time.Now()
	}
	if lifetime := expires.Sub(date); lifetime > 0 {
		return lifetime
	}
	return 0
}

// MustRevalidate reports whether metadata's Cache-Control forces
// revalidation on every read — the §4.4 "no-cache" contract.
func MustRevalidate(h http.Header) bool {
	return ParseHeader(h).NoCache()
}

// Expired implements the Cache Policy's isExpired predicate from §3:
// now - entryTimestamp > maxAge, or a forced expiry, or a must-revalidate
// directive on the stored metadata.
func Expired(entryTimestamp time.Time, maxAge time.Duration, metadata http.Header, forceExpire bool) bool {
	if forceExpire {
		return true
	}
	if MustRevalidate(metadata) {
		return true
	}
	if maxAge <= 0 {
		maxAge = FreshnessLifetime(metadata)
	}
	if maxAge <= 0 {
		return true
	}
	return time.Since(entryTimestamp) > maxAge
}
