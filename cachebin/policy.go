package cachebin

import (
	"time"

	"github.com/geotilecore/geotilecore/cachecontrol"
)

// Usage selects how a Client treats its Bin for a given request,
// per §3.
type Usage int

const (
	// ReadWrite is the default: read-through on hit, write-through on miss.
	ReadWrite Usage = iota
	// CacheOnly never contacts the transport, even on a stale or absent entry.
	CacheOnly
	// NoCache always contacts the transport and never reads or writes the bin.
	NoCache
)

// Policy mirrors the §3 Cache Policy value.
type Policy struct {
	Usage       Usage
	MaxAge      time.Duration
	ForceExpire bool
}

// DefaultPolicy is ReadWrite with no explicit max age (falls back to
// the stored response's own freshness lifetime).
var DefaultPolicy = Policy{Usage: ReadWrite}

// IsExpired implements §3's isExpired predicate for a given entry,
// honoring cache-control "no-cache" on the stored metadata.
func (p Policy) IsExpired(entry Entry) bool {
	return cachecontrol.Expired(entry.Timestamp, p.MaxAge, HeaderFromMetadata(entry.Metadata), p.ForceExpire)
}
