// Package resource implements the opaque URL value, its referrer-based
// relative resolution, and the global rewriter/config-handler hooks
// described in §3 and §4.3 of the spec.
package resource

import (
	"net/url"
	"strings"
)

// URL is an opaque URL string together with a referrer used to
// resolve it when it is relative, per §3 ("URL: opaque string plus an
// associated referrer used to resolve relative paths").
type URL struct {
	raw      string
	referrer string
}

// New constructs a URL with no referrer.
func New(raw string) URL {
	return URL{raw: raw}
}

// NewRelative constructs a URL resolved against referrer if raw is a
// relative path; referrer is retained regardless, for any further
// relative resolution downstream.
func NewRelative(raw, referrer string) URL {
	u := URL{raw: raw, referrer: referrer}
	if referrer == "" {
		return u
	}
	parsedReferrer, err := url.Parse(referrer)
	if err != nil {
		return u
	}
	parsedRaw, err := url.Parse(raw)
	if err != nil {
		return u
	}
	if parsedRaw.IsAbs() {
		return u
	}
	u.raw = parsedReferrer.ResolveReference(parsedRaw).String()
	return u
}

// Full returns the resolved, opaque URL string.
func (u URL) Full() string { return u.raw }

// Referrer returns the base path this URL was resolved against, if any.
func (u URL) Referrer() string { return u.referrer }

// Empty reports whether the URL carries no content.
func (u URL) Empty() bool { return u.raw == "" }

// String implements fmt.Stringer.
func (u URL) String() string { return u.raw }

// IsRemote reports whether the URL scheme indicates network fetching
// as opposed to a local file path.
func (u URL) IsRemote() bool {
	return strings.HasPrefix(u.raw, "http://") || strings.HasPrefix(u.raw, "https://")
}
