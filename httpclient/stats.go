package httpclient

import (
	"sync/atomic"

	"github.com/geotilecore/geotilecore/transport"
)

// Stats aggregates a Client's own cache hit/miss counters with its
// backend's transport-level counters, when the backend exposes them.
type Stats struct {
	CacheHits   int64
	CacheMisses int64
	Transport   *transport.Stats
}

type clientCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *clientCounters) recordHit()  { c.hits.Add(1) }
func (c *clientCounters) recordMiss() { c.misses.Add(1) }

// Stats returns a snapshot of this Client's cache hit/miss counts
// plus its backend's counters, if the installed backend supports
// them (the Supplemented-features "Statistics counters" contract).
func (c *Client) Stats() Stats {
	s := Stats{
		CacheHits:   c.counters.hits.Load(),
		CacheMisses: c.counters.misses.Load(),
	}
	if provider, ok := c.backend.(transport.StatsProvider); ok {
		s.Transport = provider.Stats()
	}
	return s
}
