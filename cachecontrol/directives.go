// Package cachecontrol parses HTTP caching headers and computes
// freshness, grounded on the Cache-Control/Expires/Age semantics of
// RFC 9111.
package cachecontrol

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directives holds the parsed Cache-Control directives of a single
// header set, directive names compared case-insensitively.
type Directives struct {
	values map[string]string
}

// Parse reads Cache-Control header values (there may be more than one
// header line) into a Directives set. When a directive is repeated,
// the last occurrence wins.
func Parse(headerValues []string) Directives {
	values := make(map[string]string)
	for _, line := range headerValues {
		for _, directive := range strings.Split(line, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			name, arg, _ := strings.Cut(directive, "=")
			values[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(arg), `"`)
		}
	}
	return Directives{values: values}
}

// ParseHeader is a convenience wrapper over a http.Header.
func ParseHeader(h http.Header) Directives {
	return Parse(h.Values("Cache-Control"))
}

// Get returns a directive's argument and whether it was present.
func (d Directives) Get(name string) (string, bool) {
	v, ok := d.values[strings.ToLower(name)]
	return v, ok
}

// Has reports whether a directive is present, regardless of argument.
func (d Directives) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// NoCache reports the "no-cache" directive — per §4.4 of the spec,
// any cache-control value containing it forces revalidation on every
// read, not just when the bare "no-cache" token is present.
func (d Directives) NoCache() bool {
	for name, arg := range d.values {
		if strings.Contains(name, "no-cache") || strings.Contains(strings.ToLower(arg), "no-cache") {
			return true
		}
	}
	return false
}

// NoStore reports the "no-store" directive.
func (d Directives) NoStore() bool {
	return d.Has("no-store")
}

// MaxAge returns the "max-age" directive as a duration.
func (d Directives) MaxAge() (time.Duration, bool) {
	return deltaSeconds(d.values["max-age"])
}

// SMaxAge returns the "s-maxage" directive as a duration.
func (d Directives) SMaxAge() (time.Duration, bool) {
	return deltaSeconds(d.values["s-maxage"])
}

func deltaSeconds(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
