package transport

import "sync/atomic"

// Stats holds the lightweight global counters the spec's Supplemented
// features call for: the original keeps a numGets-style tally plus
// cache hit/miss counts for diagnostics, exposed read-only via a
// Stats() accessor rather than as a metrics/observability subsystem —
// this is an ambient counter, not the Non-goal's excluded metrics
// layer.
type Stats struct {
	gets     atomic.Int64
	failures atomic.Int64
	canceled atomic.Int64
}

// Gets returns the total number of DoGet calls made through this
// Stats instance's backend.
func (s *Stats) Gets() int64 { return s.gets.Load() }

// Failures returns the number of DoGet calls that returned a
// transport failure (code 0, not canceled).
func (s *Stats) Failures() int64 { return s.failures.Load() }

// Canceled returns the number of DoGet calls canceled via the
// ProgressCallback.
func (s *Stats) Canceled() int64 { return s.canceled.Load() }

func (s *Stats) recordGet() { s.gets.Add(1) }

func (s *Stats) record(resp *Response) {
	if resp.Canceled {
		s.canceled.Add(1)
		return
	}
	if resp.IsTransportFailure() {
		s.failures.Add(1)
	}
}
